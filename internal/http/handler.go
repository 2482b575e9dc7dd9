package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vin-decoder-service/internal/auth"
	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/inference"
	"vin-decoder-service/internal/report"
	"vin-decoder-service/internal/service"
	"vin-decoder-service/internal/session"
)

type Handler struct {
	authService   *service.AuthService
	lookupService *service.LookupService
	reportService *service.ReportService
	log           zerolog.Logger
}

func NewHandler(
	authService *service.AuthService,
	lookupService *service.LookupService,
	reportService *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		authService:   authService,
		lookupService: lookupService,
		reportService: reportService,
		log:           log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", h.login)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", h.logout)
		protected.POST("/lookups", h.createLookup)
		protected.GET("/lookups/current", h.currentLookup)
		protected.DELETE("/lookups/current", h.resetLookup)
		protected.GET("/lookups/current/report", h.currentReport)
		protected.GET("/lookups/history", h.lookupHistory)
		protected.GET("/lookups/stats", h.lookupStats)
		protected.POST("/reports", h.renderReport)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type lookupRequest struct {
	VIN string `json:"vin"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) logout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.authService.Logout(sess.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) createLookup(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	profile, err := h.lookupService.Lookup(c.Request.Context(), sess, req.VIN)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(profile))
}

func (h *Handler) currentLookup(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, successResponse(sess.Snapshot()))
}

func (h *Handler) resetLookup(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if sess.Status() == session.StatusIdle {
		c.Status(http.StatusNoContent)
		return
	}
	if err := sess.Reset(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentReport(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	profile, ok := sess.Profile()
	if !ok {
		h.handleError(c, fmt.Errorf("%w: no successful lookup in this session", service.ErrNotFound))
		return
	}

	doc, err := h.reportService.Render(format, profile)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeDocument(c, doc)
}

func (h *Handler) renderReport(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	var profile vehicle.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	doc, err := h.reportService.RenderSubmitted(format, profile)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeDocument(c, doc)
}

func (h *Handler) lookupHistory(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := parseInt(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := parseInt(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	entries, err := h.lookupService.History(c.Request.Context(), sess.Username, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entries))
}

func (h *Handler) lookupStats(c *gin.Context) {
	window := 24 * time.Hour
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid since, use a duration like 24h"))
			return
		}
		window = parsed
	}

	counts, err := h.lookupService.Stats(c.Request.Context(), time.Now().Add(-window))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"since":    window.String(),
		"outcomes": counts,
	}))
}

// session resolves the caller's session and writes 401 when it is gone.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized"))
		return nil, false
	}
	sess, err := h.authService.Session(claims)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("session expired, please log in again"))
		return nil, false
	}
	return sess, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse("invalid username or password"))
	case errors.Is(err, session.ErrLookupInFlight):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, inference.ErrLookupFailed), errors.Is(err, inference.ErrMalformedResponse):
		// Already logged with its error_kind by the service.
		c.JSON(http.StatusBadGateway, errorResponse(service.UserErrorMessage))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func writeDocument(c *gin.Context, doc *report.Document) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
