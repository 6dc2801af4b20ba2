package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pillarhealth/clinic-api/internal/cache"
	"github.com/pillarhealth/clinic-api/internal/middleware"
)

func testReviewHandler(t *testing.T) (*ReviewHandler, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewReviewHandler(db, cache.NewRatingCache(client)), mock
}

func postJSON(t *testing.T, userID uint, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserID, userID)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

// Two creates racing past the count check must not surface as a 500;
// the unique index on appointment_id decides, and the loser gets the
// same business code as the count check.
func TestCreateReviewDuplicateRaceMapsToBusinessCode(t *testing.T) {
	h, mock := testReviewHandler(t)

	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE id = \$1 AND patient_id = \$2`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "doctor_id", "patient_id", "status"}).
			AddRow(10, 1, 2, "completed"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reviews" WHERE appointment_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	c, w := postJSON(t, 2, `{"appointment_id":10,"rating":5,"comment":"great"}`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "review_already_exists")
	require.NoError(t, mock.ExpectationsWereMet())
}
