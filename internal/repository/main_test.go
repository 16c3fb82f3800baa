package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"threads/internal/database"
	"threads/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.ApplySchema(context.Background(), db))
	return db
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seedThread(t *testing.T, repo ThreadRepository, id, author string, parent *string, offset time.Duration) *models.Thread {
	t.Helper()
	th := &models.Thread{ID: id, Text: "text " + id, AuthorID: author, ParentID: parent, CreatedAt: baseTime.Add(offset)}
	require.NoError(t, repo.Create(context.Background(), th))
	return th
}

func ptr(s string) *string { return &s }

var errBoom = errors.New("boom")
