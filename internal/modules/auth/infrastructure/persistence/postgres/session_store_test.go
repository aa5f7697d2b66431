package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/persistence/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(sqlDB, "sqlmock"), mock, func() { _ = sqlDB.Close() }
}

func TestPgSessionStore_SaveUpsertsEveryKey(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 0)

	session := domain.Session{Token: "a.b.c", Role: "broker", UserID: "u1", Phone: "9876543210"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "token", "a.b.c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "role", "broker").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "userId", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "phone", "9876543210").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), "c1", session))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSessionStore_SaveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "token", "a.b.c").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO client_storage").WithArgs("c1", "role", "broker").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.Save(context.Background(), "c1", domain.Session{Token: "a.b.c", Role: "broker"})
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "role")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSessionStore_SaveBeginAndCommitErrors(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 0)
	ctx := context.Background()

	mock.ExpectBegin().WillReturnError(assert.AnError)
	assert.ErrorIs(t, store.Save(ctx, "c1", domain.Session{Token: "a.b.c"}), assert.AnError)

	mock.ExpectBegin()
	for i := 0; i < len(domain.SessionKeys); i++ {
		mock.ExpectExec("INSERT INTO client_storage").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit().WillReturnError(assert.AnError)
	assert.ErrorIs(t, store.Save(ctx, "c1", domain.Session{Token: "a.b.c"}), assert.AnError)
}

func TestPgSessionStore_Load(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 0)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("token", "a.b.c").
		AddRow("role", "customer").
		AddRow("userId", "u9").
		AddRow("phone", "1234567890")
	mock.ExpectQuery(`SELECT key, value FROM client_storage WHERE client_id = \$1`).WithArgs("c1").WillReturnRows(rows)

	got, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.Session{Token: "a.b.c", Role: "customer", UserID: "u9", Phone: "1234567890"}, got)

	mock.ExpectQuery(`SELECT key, value FROM client_storage`).WithArgs("none").WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))
	_, err = store.Load(ctx, "none")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	mock.ExpectQuery(`SELECT key, value FROM client_storage`).WithArgs("err").WillReturnError(assert.AnError)
	_, err = store.Load(ctx, "err")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPgSessionStore_LoadSkipsRowsOlderThanTTL(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 24*time.Hour)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT key, value FROM client_storage WHERE client_id = \$1 AND updated_at > \$2`).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	_, err := store.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	mock.ExpectQuery(`updated_at > \$2`).
		WithArgs("c2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("token", "a.b.c"))

	got, err := store.Load(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", got.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSessionStore_Clear(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	store := postgres.NewSessionStore(db, 0)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM client_storage WHERE client_id = \$1`).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 4))
	require.NoError(t, store.Clear(ctx, "c1"))

	mock.ExpectExec(`DELETE FROM client_storage`).WithArgs("c1").WillReturnError(assert.AnError)
	assert.ErrorIs(t, store.Clear(ctx, "c1"), assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
