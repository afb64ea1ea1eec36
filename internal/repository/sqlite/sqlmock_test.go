package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return newFromConn(conn), mock
}

func TestCreate_NotAcknowledged(t *testing.T) {
	tests := []struct {
		name   string
		create func(db *DB) error
	}{
		{
			name: "user",
			create: func(db *DB) error {
				return db.Users().Create(context.Background(), &model.User{Handle: "ann"})
			},
		},
		{
			name: "link",
			create: func(db *DB) error {
				return db.Links().Create(context.Background(), &model.Link{Label: "go"})
			},
		},
		{
			name: "folder",
			create: func(db *DB) error {
				return db.Folders().Create(context.Background(), &model.Folder{Name: "f"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(`INSERT INTO`).WillReturnResult(sqlmock.NewResult(0, 0))

			err := tt.create(db)
			assert.ErrorIs(t, err, repository.ErrNotAcknowledged)
		})
	}
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk I/O error")

	t.Run("link update", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE links`).WillReturnError(boom)

		err := db.Links().Update(context.Background(), &model.Link{ID: "l1"})
		assert.ErrorIs(t, err, boom)
		assert.False(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("folder delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM folders`).WithArgs("f1").WillReturnError(boom)

		err := db.Folders().Delete(context.Background(), "f1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("user list", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT .* FROM users`).WillReturnError(boom)

		_, err := db.Users().List(context.Background(), repository.ListOptions{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestLinkScan_CorruptFolderIDs(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "label", "url", "is_private", "owner_id", "folder_ids", "created_at", "updated_at",
	}).AddRow("l1", "go", "https://go.dev", false, "ann", "not json", db.now(), db.now())
	mock.ExpectQuery(`SELECT .* FROM links WHERE id = \?`).WithArgs("l1").WillReturnRows(rows)

	_, err := db.Links().GetByID(context.Background(), "l1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
}
