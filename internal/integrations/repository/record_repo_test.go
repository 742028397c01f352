package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
)

func testRecord(source, externalID string) domain.Record {
	return domain.Record{
		Source:     source,
		ExternalID: externalID,
		Kind:       domain.KindRFI,
		Payload:    json.RawMessage(`{"id":"` + externalID + `"}`),
		FetchedAt:  time.Now().UTC(),
	}
}

func TestRecordRepository_UpsertBatch(t *testing.T) {
	t.Run("writes batch to database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRecordRepository(db)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(`INSERT INTO imported_records`)
		prep.ExpectExec().
			WithArgs("procore", "r-1", domain.KindRFI, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().
			WithArgs("procore", "r-2", domain.KindRFI, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stored, buffered, err := repo.UpsertBatch(context.Background(),
			[]domain.Record{testRecord("procore", "r-1"), testRecord("procore", "r-2")})
		require.NoError(t, err)
		assert.Equal(t, 2, stored)
		assert.False(t, buffered)
		assert.Zero(t, repo.BufferedCount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("buffers in memory when database is down, drains on recovery", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRecordRepository(db)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		stored, buffered, err := repo.UpsertBatch(context.Background(),
			[]domain.Record{testRecord("fieldwire", "t-1")})
		require.NoError(t, err, "a down database must not fail the sync")
		assert.Equal(t, 1, stored)
		assert.True(t, buffered)
		assert.Equal(t, 1, repo.BufferedCount())

		// Next batch drains the buffer ahead of the new records.
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(`INSERT INTO imported_records`)
		prep.ExpectExec().
			WithArgs("fieldwire", "t-1", domain.KindRFI, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().
			WithArgs("fieldwire", "t-2", domain.KindRFI, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stored, buffered, err = repo.UpsertBatch(context.Background(),
			[]domain.Record{testRecord("fieldwire", "t-2")})
		require.NoError(t, err)
		assert.Equal(t, 2, stored)
		assert.False(t, buffered)
		assert.Zero(t, repo.BufferedCount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent failing batches are both retained", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.MatchExpectationsInOrder(false)
		repo := NewRecordRepository(db)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused")).
			WillDelayFor(10 * time.Millisecond)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused")).
			WillDelayFor(10 * time.Millisecond)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for _, rec := range []domain.Record{testRecord("procore", "r-1"), testRecord("plangrid", "d-1")} {
			wg.Add(1)
			go func(rec domain.Record) {
				defer wg.Done()
				<-start
				_, buffered, err := repo.UpsertBatch(context.Background(), []domain.Record{rec})
				assert.NoError(t, err)
				assert.True(t, buffered)
			}(rec)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 2, repo.BufferedCount(), "both failed batches must survive until the next successful write")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-buffering the same record does not duplicate it", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRecordRepository(db)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		for i := 0; i < 2; i++ {
			_, buffered, err := repo.UpsertBatch(context.Background(),
				[]domain.Record{testRecord("procore", "r-1")})
			require.NoError(t, err)
			assert.True(t, buffered)
		}

		assert.Equal(t, 1, repo.BufferedCount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRecordRepository(db)

		stored, buffered, err := repo.UpsertBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, stored)
		assert.False(t, buffered)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
