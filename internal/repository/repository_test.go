package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &LookupAudit{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, ok, err := repo.PasswordHash(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := repo.EnsureUser(ctx, "admin", "hash-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureUser(ctx, "admin", "hash-2")
	require.NoError(t, err)
	assert.False(t, created)

	hash, ok, err := repo.PasswordHash(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash-1", hash, "existing passwords are kept")
}

func TestAuditRepositoryRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	kind := "malformed_response"
	entries := []*LookupAudit{
		{Username: "admin", VIN: "W0L000051T123456", Outcome: "success", DurationMs: 1200, CreatedAt: base,
			Details: datatypes.JSONMap{"make": "Opel", "pages": 2}},
		{Username: "gast", VIN: "WVWZZZ1JZXW000001", Outcome: "malformed_response", ErrorKind: &kind, DurationMs: 900, CreatedAt: base.Add(time.Minute)},
		{Username: "admin", VIN: "WDB12345678901234", Outcome: "lookup_failed", DurationMs: 30000, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Record(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	all, err := repo.Recent(ctx, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "WDB12345678901234", all[0].VIN)
	assert.Equal(t, "W0L000051T123456", all[2].VIN)
	assert.Equal(t, "Opel", all[2].Details["make"])

	user := "admin"
	mine, err := repo.Recent(ctx, &user, 1, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "lookup_failed", mine[0].Outcome)

	page, err := repo.Recent(ctx, &user, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "success", page[0].Outcome)

	gast := "gast"
	theirs, err := repo.Recent(ctx, &gast, 10, 0)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	require.NotNil(t, theirs[0].ErrorKind)
	assert.Equal(t, kind, *theirs[0].ErrorKind)
}

func TestAuditRepositoryCountAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))

	now := time.Now().UTC()
	require.NoError(t, repo.Record(ctx, &LookupAudit{Username: "admin", VIN: "A", Outcome: "success", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Record(ctx, &LookupAudit{Username: "admin", VIN: "B", Outcome: "success", CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Record(ctx, &LookupAudit{Username: "gast", VIN: "C", Outcome: "lookup_failed", CreatedAt: now.Add(-time.Minute)}))

	counts, err := repo.CountByOutcome(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"success": 1, "lookup_failed": 1}, counts)

	deleted, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rest, err := repo.Recent(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
