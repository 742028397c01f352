package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
)

func setupClashRepo(t *testing.T) (*ClashRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewClashRepository(db), mock, db
}

func TestClashRepository_RecordRun(t *testing.T) {
	repo, mock, db := setupClashRepo(t)
	defer db.Close()

	t.Run("upserts found clashes and resolves stale ones", func(t *testing.T) {
		clashes := []domain.Clash{
			{ElementA: "el-a", ElementB: "el-b", Kind: domain.ClashHard,
				Distance: 0.12, Severity: domain.SeverityCritical, Location: [3]float64{1, 2, 3}},
			{ElementA: "el-a", ElementB: "el-c", Kind: domain.ClashClearance,
				Distance: 0.03, Severity: domain.SeverityMinor, Location: [3]float64{4, 5, 6}},
		}

		mock.ExpectBegin()
		mock.ExpectPrepare(`INSERT INTO bim_clashes`)
		mock.ExpectExec(`INSERT INTO bim_clashes`).
			WithArgs(sqlmock.AnyArg(), "proj-1", "el-a", "el-b", domain.ClashHard,
				0.12, domain.SeverityCritical, 1.0, 2.0, 3.0, "run-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO bim_clashes`).
			WithArgs(sqlmock.AnyArg(), "proj-1", "el-a", "el-c", domain.ClashClearance,
				0.03, domain.SeverityMinor, 4.0, 5.0, 6.0, "run-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bim_clashes`).
			WithArgs("proj-1", "run-1").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		found, resolved, err := repo.RecordRun(context.Background(), "proj-1", "run-1", clashes)
		require.NoError(t, err)
		assert.Equal(t, 2, found)
		assert.Equal(t, 3, resolved)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty run resolves everything still open", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectPrepare(`INSERT INTO bim_clashes`)
		mock.ExpectExec(`UPDATE bim_clashes`).
			WithArgs("proj-1", "run-2").
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectCommit()

		found, resolved, err := repo.RecordRun(context.Background(), "proj-1", "run-2", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, found)
		assert.Equal(t, 5, resolved)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClashRepository_CountOpen(t *testing.T) {
	repo, mock, db := setupClashRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT severity, COUNT`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"severity", "count"}).
			AddRow(domain.SeverityCritical, 2).
			AddRow(domain.SeverityMinor, 7))

	counts, err := repo.CountOpen(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{domain.SeverityCritical: 2, domain.SeverityMinor: 7}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
