package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/domain"
)

func TestUpsertBatchPreparesOnceAndCommits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBarsRepo(db, 5*time.Second)

	bars := []domain.Bar{
		{Date: date(2025, 11, 20), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Date: date(2025, 11, 21), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO price_cache")
	prep.ExpectExec().
		WithArgs(int64(7), bars[0].Date, 1.0, 2.0, 0.5, 1.5, int64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(7), bars[1].Date, 1.5, 2.5, 1.0, 2.0, int64(200)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.UpsertBatch(context.Background(), 7, bars)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchEmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBarsRepo(db, 5*time.Second)

	err := repo.UpsertBatch(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRangeOrdersAscending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBarsRepo(db, 5*time.Second)

	from, to := date(2025, 11, 1), date(2025, 11, 30)
	rows := sqlmock.NewRows([]string{"date", "open", "high", "low", "close", "volume"}).
		AddRow(date(2025, 11, 20), 1.0, 2.0, 0.5, 1.5, 100).
		AddRow(date(2025, 11, 21), 1.5, 2.5, 1.0, 2.0, 200)

	mock.ExpectQuery("ORDER BY date ASC").
		WithArgs(int64(7), from, to).
		WillReturnRows(rows)

	bars, err := repo.ListRange(context.Background(), 7, from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.NoError(t, mock.ExpectationsWereMet())
}
