package http

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/auth"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/domain"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/repository"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/service"
)

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := New(service.NewRFIService(repository.NewRFIRepository(db)))

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(auth.CtxUserDBID, "user-1") })

	api := r.Group("/api/v1")
	projects := api.Group("/projects")
	resolve := func(c *gin.Context) (string, bool) {
		if c.Param("public_id") == "hld-00001-0001" {
			return "proj-1", true
		}
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return "", false
	}
	handler.Register(projects, api, resolve)
	return r, mock
}

func rfiRow(id, number, status string) *sqlmock.Rows {
	cols := []string{"id", "project_id", "number", "subject", "question", "answer", "status",
		"priority", "discipline", "submitted_by", "assigned_to", "due_date", "submitted_at", "answered_at"}
	return sqlmock.NewRows(cols).AddRow(
		id, "proj-1", number, "Beam conflict", "Relocate?", "", status,
		domain.PriorityHigh, "structural", "user-1", "", nil, time.Now(), nil)
}

func TestRFIHandlers_Create(t *testing.T) {
	t.Run("creates under project", func(t *testing.T) {
		router, mock := setupRouter(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO rfi_counters`).
			WillReturnRows(sqlmock.NewRows([]string{"next_seq"}).AddRow(1))
		mock.ExpectQuery(`INSERT INTO rfis`).
			WillReturnRows(rfiRow("rfi-1", "RFI-001", domain.StatusOpen))
		mock.ExpectCommit()

		body := `{"subject":"Beam conflict","question":"Relocate?","priority":"high"}`
		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/projects/hld-00001-0001/rfis", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"RFI-001"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing subject", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/projects/hld-00001-0001/rfis",
			strings.NewReader(`{"question":"?"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown project is 404", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/projects/hld-99999-9999/rfis",
			strings.NewReader(`{"subject":"s","question":"q"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRFIHandlers_Answer(t *testing.T) {
	t.Run("answers an open rfi", func(t *testing.T) {
		router, mock := setupRouter(t)

		mock.ExpectQuery(`UPDATE rfis`).
			WillReturnRows(rfiRow("rfi-1", "RFI-001", domain.StatusAnswered))

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/rfis/rfi-1/answer",
			strings.NewReader(`{"answer":"Shift 50mm east."}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"answered"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid transition is 409", func(t *testing.T) {
		router, mock := setupRouter(t)

		mock.ExpectQuery(`UPDATE rfis`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT`).
			WillReturnRows(rfiRow("rfi-1", "RFI-001", domain.StatusClosed))

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/rfis/rfi-1/answer",
			strings.NewReader(`{"answer":"too late"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
