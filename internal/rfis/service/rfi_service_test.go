package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/rfis/repository"
)

func setupRFIService(t *testing.T) (*RFIService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRFIService(repository.NewRFIRepository(db)), mock
}

func TestRFIService_AgingBuckets(t *testing.T) {
	t.Run("distributes open rfis across buckets", func(t *testing.T) {
		svc, mock := setupRFIService(t)
		now := time.Now()

		mock.ExpectQuery(`SELECT submitted_at FROM rfis`).
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).
				AddRow(now.Add(-2 * 24 * time.Hour)).
				AddRow(now.Add(-10 * 24 * time.Hour)).
				AddRow(now.Add(-20 * 24 * time.Hour)).
				AddRow(now.Add(-45 * 24 * time.Hour)))

		buckets, err := svc.AgingBuckets(context.Background(), "proj-1")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{
			BucketWeek:      1,
			BucketFortnight: 1,
			BucketMonth:     1,
			BucketStale:     1,
		}, buckets)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty project keeps every bucket present", func(t *testing.T) {
		svc, mock := setupRFIService(t)

		mock.ExpectQuery(`SELECT submitted_at FROM rfis`).
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}))

		buckets, err := svc.AgingBuckets(context.Background(), "proj-1")
		require.NoError(t, err)
		assert.Len(t, buckets, 4)
		for label, n := range buckets {
			assert.Zero(t, n, "bucket %s", label)
		}
	})

	t.Run("clock-skewed future submissions count as fresh", func(t *testing.T) {
		svc, mock := setupRFIService(t)

		mock.ExpectQuery(`SELECT submitted_at FROM rfis`).
			WithArgs("proj-1").
			WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).
				AddRow(time.Now().Add(time.Hour)))

		buckets, err := svc.AgingBuckets(context.Background(), "proj-1")
		require.NoError(t, err)
		assert.Equal(t, 1, buckets[BucketWeek])
	})
}

func TestAgingBucketBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, BucketWeek},
		{7, BucketWeek},
		{8, BucketFortnight},
		{14, BucketFortnight},
		{15, BucketMonth},
		{30, BucketMonth},
		{31, BucketStale},
		{120, BucketStale},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, agingBucket(tc.days), "days=%d", tc.days)
	}
}
