package session

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, now time.Time) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewMySQLStore(db, time.Hour)
	store.now = func() time.Time { return now }
	return store, mock
}

func TestMySQLStoreCreate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`)).
		WithArgs(sqlmock.AnyArg(), "u-1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := store.Create(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Len(t, token, 48)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreCreateCollision(t *testing.T) {
	store, mock := newMockStore(t, time.Now())

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'PRIMARY'"})

	_, err := store.Create(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrTokenCollision)
}

func TestMySQLStoreGetSlidesExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?`)).
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions SET expires_at = ? WHERE token = ?`)).
		WithArgs(now.Add(time.Hour), "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID, ok, err := store.Get(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreGetUnknown(t *testing.T) {
	store, mock := newMockStore(t, time.Now())

	mock.ExpectQuery("SELECT user_id FROM sessions").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	userID, ok, err := store.Get(context.Background(), "expired")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreDestroy(t *testing.T) {
	store, mock := newMockStore(t, time.Now())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = ?`)).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Destroy(context.Background(), "tok"))
}

func TestMySQLStorePurgeExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store, mock := newMockStore(t, now)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE expires_at <= ?`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
