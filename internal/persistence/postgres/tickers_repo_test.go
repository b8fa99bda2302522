package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/persistence"
)

func TestAddNormalizesSymbol(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTickersRepo(db, 5*time.Second)

	rows := sqlmock.NewRows([]string{"id", "symbol", "added_date", "is_active"}).
		AddRow(1, "AAPL", time.Now(), true)
	mock.ExpectQuery("INSERT INTO tickers").
		WithArgs("AAPL").
		WillReturnRows(rows)

	ticker, err := repo.Add(context.Background(), "  aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", ticker.Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddDuplicateSymbol(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTickersRepo(db, 5*time.Second)

	mock.ExpectQuery("INSERT INTO tickers").
		WithArgs("AAPL").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := repo.Add(context.Background(), "AAPL")
	assert.ErrorIs(t, err, persistence.ErrDuplicateTicker)
}

func TestRemoveUnknownSymbol(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTickersRepo(db, 5*time.Second)

	mock.ExpectExec("DELETE FROM tickers").
		WithArgs("MISSING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrTickerNotFound)
}

func TestListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTickersRepo(db, 5*time.Second)

	rows := sqlmock.NewRows([]string{"id", "symbol", "added_date", "is_active"}).
		AddRow(1, "AAPL", time.Now(), true).
		AddRow(2, "MSFT", time.Now(), true)
	mock.ExpectQuery("WHERE is_active").WillReturnRows(rows)

	tickers, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, tickers, 2)
}
