package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"eco-rewards/internal/domain/cart"
)

func newCartRepository(t *testing.T) (*CartRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &CartRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}, mock
}

func TestCartRepository_FindByUserID(t *testing.T) {
	updatedAt := time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantCount int64
		wantError error
	}{
		{
			name: "正常系: カートが見つかる",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"items", "updated_at"}).
					AddRow([]byte(`[{"id":"f1","restaurantName":"A","name":"Jerk Drums","price":10,"quantity":2}]`), updatedAt)
				mock.ExpectQuery(`SELECT items, updated_at\s+FROM carts`).
					WithArgs("user123").
					WillReturnRows(rows)
			},
			wantCount: 2,
		},
		{
			name: "正常系: 読めない行は空のカート",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"items", "updated_at"}).
					AddRow([]byte(`{"broken":true}`), updatedAt)
				mock.ExpectQuery(`SELECT items, updated_at\s+FROM carts`).
					WithArgs("user123").
					WillReturnRows(rows)
			},
			wantCount: 0,
		},
		{
			name: "異常系: カートが見つからない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT items, updated_at\s+FROM carts`).
					WithArgs("user123").
					WillReturnError(sql.ErrNoRows)
			},
			wantError: cart.ErrCartNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newCartRepository(t)
			tt.setupMock(mock)

			got, err := repo.FindByUserID(context.Background(), "user123")
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, got.Count())
				assert.Equal(t, updatedAt, got.UpdatedAt())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCartRepository_SaveAndDelete(t *testing.T) {
	c := cart.MustNewCart("user123")
	require.NoError(t, c.Add(cart.Item{ID: "f1", Name: "Jerk Drums", Price: 10}, "A", time.Now()))

	repo, mock := newCartRepository(t)
	mock.ExpectExec(`INSERT INTO carts`).
		WithArgs("user123", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM carts WHERE user_id = \?`).
		WithArgs("user123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), c))
	require.NoError(t, repo.Delete(context.Background(), "user123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
