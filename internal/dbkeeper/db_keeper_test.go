package dbkeeper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/storage"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: storage.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: storage.ErrNotFound},
		{name: "unique", err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}, want: storage.ErrConflict},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503", Message: "still referenced"}, want: storage.ErrConflict},
		{name: "check", err: &pgconn.PgError{Code: "23514", Message: "stock_non_negative"}, want: storage.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, mapError(other))
}

func TestNewDBKeeperRejectsEmptyDSN(t *testing.T) {
	kp := NewDBKeeper(context.Background(), func() string { return "" }, logger.Nop())
	assert.Nil(t, kp)
}
