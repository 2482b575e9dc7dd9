package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxAuditPage = 100

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// LookupAudit records that a lookup happened. Decoded vehicle content is
// never stored here.
type LookupAudit struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	Username   string  `gorm:"not null;index"`
	VIN        string  `gorm:"column:vin;not null"`
	Outcome    string  `gorm:"not null"`
	ErrorKind  *string
	DurationMs int64 `gorm:"not null"`
	Details    datatypes.JSONMap
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (LookupAudit) TableName() string { return "lookup_audit" }

func (r *AuditRepository) Record(ctx context.Context, entry *LookupAudit) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the newest entries first. A nil username lists all users.
func (r *AuditRepository) Recent(ctx context.Context, username *string, limit, offset int) ([]LookupAudit, error) {
	query := r.db.WithContext(ctx).Model(&LookupAudit{})

	if username != nil {
		query = query.Where("username = ?", *username)
	}

	query = query.Order("created_at DESC")

	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}

	var entries []LookupAudit
	err := query.Find(&entries).Error
	return entries, err
}

func (r *AuditRepository) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&LookupAudit{}).
		Select("outcome, count(*) as total").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}

// DeleteOlderThan removes entries created before now minus age.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&LookupAudit{})
	return result.RowsAffected, result.Error
}
