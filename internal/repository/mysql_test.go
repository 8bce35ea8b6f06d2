package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookreview/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{TranslateError: true, Logger: gormlogger.Discard})
	require.NoError(t, err)
	return gdb, mock
}

func TestReviewRepository_MySQLDuplicateEntry(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewReviewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reviews`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '2-1' for key 'idx_reviews_user_book'"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Review{UserID: 2, BookID: 1, Rating: 4})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestBookRepository_StoreFailurePropagates(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewBookRepository(gdb)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err := repo.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}
