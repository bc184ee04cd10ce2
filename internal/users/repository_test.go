package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewGormRepository(db), mock
}

func TestGormRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WithArgs(sqlmock.AnyArg(), "Sara", "Karimi", "0912", "001").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	user, err := repo.Create(context.Background(), User{
		FirstName: "Sara", LastName: "Karimi", Phone: "0912", IDCard: "001", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryGetNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(int64(3), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), 3)
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryFindByIDCard(t *testing.T) {
	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows([]string{"id", "created_at", "first_name", "last_name", "phone", "id_card"}).
		AddRow(4, time.Now(), "Ali", "Rezaei", "0935", "abc")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id_card = $1`)).
		WithArgs("abc", 1).
		WillReturnRows(rows)

	user, err := repo.FindByIDCard(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.ID)
	assert.Equal(t, "Ali", user.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryUpdateMissingRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), User{ID: 9, FirstName: "A", LastName: "B", Phone: "1"})
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
