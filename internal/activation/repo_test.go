package activation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tallyops/reportdesk-backend/pkg/db/models"
	"github.com/tallyops/reportdesk-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`
		CREATE TABLE activation_codes (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			is_used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at DATETIME,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)
	`).Error)
	require.NoError(t, db.Exec(`
		CREATE TABLE admin_groups (
			group_id TEXT PRIMARY KEY,
			activated_at DATETIME NOT NULL
		)
	`).Error)

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func insertCode(t *testing.T, repo Repository, digits string, createdAt, expiresAt time.Time) *models.ActivationCode {
	t.Helper()

	code := &models.ActivationCode{
		ID:        uuid.New(),
		Code:      digits,
		Name:      "Dana",
		Type:      enums.ActivationCodeTypeEmployee,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, repo.Create(context.Background(), code))
	return code
}

func TestRepoMarkUsedConsumesOnce(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	code := insertCode(t, repo, "482913", now.Add(-time.Minute), now.Add(14*time.Minute))

	ok, err := repo.MarkUsed(ctx, code.ID.String(), now)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second consumption loses on the is_used guard.
	ok, err = repo.MarkUsed(ctx, code.ID.String(), now)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindLatestByCode(ctx, "482913")
	require.NoError(t, err)
	assert.True(t, stored.IsUsed)
	require.NotNil(t, stored.UsedAt)
}

func TestRepoMarkUsedRefusesExpired(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	code := insertCode(t, repo, "482913", now.Add(-time.Hour), now.Add(-45*time.Minute))

	ok, err := repo.MarkUsed(ctx, code.ID.String(), now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepoFindLatestByCodePrefersNewest(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	insertCode(t, repo, "482913", now.Add(-2*time.Hour), now.Add(-105*time.Minute))
	fresh := insertCode(t, repo, "482913", now.Add(-time.Minute), now.Add(14*time.Minute))

	found, err := repo.FindLatestByCode(ctx, "482913")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, found.ID)
}

func TestRepoCodeInUse(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	insertCode(t, repo, "111111", now.Add(-time.Hour), now.Add(-45*time.Minute))
	live := insertCode(t, repo, "222222", now.Add(-time.Minute), now.Add(14*time.Minute))

	taken, err := repo.CodeInUse(ctx, "111111", now)
	require.NoError(t, err)
	assert.False(t, taken, "expired digits are reusable")

	taken, err = repo.CodeInUse(ctx, "222222", now)
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = repo.MarkUsed(ctx, live.ID.String(), now)
	require.NoError(t, err)

	taken, err = repo.CodeInUse(ctx, "222222", now)
	require.NoError(t, err)
	assert.False(t, taken, "consumed digits are reusable")
}

func TestRepoPurgeExpiredKeepsConsumed(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	insertCode(t, repo, "111111", now.Add(-time.Hour), now.Add(-45*time.Minute))
	consumed := insertCode(t, repo, "222222", now.Add(-time.Hour), now.Add(-45*time.Minute))
	_, err := repo.MarkUsed(ctx, consumed.ID.String(), now.Add(-50*time.Minute))
	require.NoError(t, err)
	insertCode(t, repo, "333333", now.Add(-time.Minute), now.Add(14*time.Minute))

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	rows, err := repo.List(ctx, nil, false, now)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRepoUpsertAdminGroupIsIdempotent(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, repo.UpsertAdminGroup(ctx, "-100200300", first))
	require.NoError(t, repo.UpsertAdminGroup(ctx, "-100200300", first.Add(time.Hour)))

	groups, err := repo.ListAdminGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "-100200300", groups[0].GroupID)
	assert.Equal(t, first, groups[0].ActivatedAt.UTC().Truncate(time.Second))
}
