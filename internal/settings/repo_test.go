package settings

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
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
		CREATE TABLE system_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error)

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSetThenValue(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyTimezone, "Asia/Shanghai"))

	value, err := repo.Value(ctx, KeyTimezone)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", value)
}

func TestSetOverwritesExisting(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyAdminGroupCode, "4821"))
	require.NoError(t, repo.Set(ctx, KeyAdminGroupCode, "9035"))

	value, err := repo.Value(ctx, KeyAdminGroupCode)
	require.NoError(t, err)
	assert.Equal(t, "9035", value)
}

func TestValueMissingKey(t *testing.T) {
	repo := NewRepository(openTestDB(t))

	_, err := repo.Value(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
