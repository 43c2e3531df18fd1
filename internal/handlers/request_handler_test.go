package handlers

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

// These tests run the lifecycle handlers against a mocked connection so the
// conditional-write guards are exercised end to end: the mock replays the
// load, then reports zero rows affected for the guarded write, which is what
// a racer that lost the state sees.

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func authAs(uid uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", uid.String())
		return c.Next()
	}
}

func lifecycleApp(gdb *gorm.DB, uid uuid.UUID) *fiber.App {
	app := fiber.New()
	h := NewRequestHandler(gdb)
	app.Put("/requests/accept/:id", authAs(uid), h.Accept)
	app.Put("/requests/reject/:id", authAs(uid), h.Reject)
	app.Put("/requests/complete/:id", authAs(uid), h.Complete)
	app.Delete("/requests/:id", authAs(uid), h.Cancel)
	return app
}

var requestCols = []string{
	"id", "title", "description", "category", "location", "status",
	"customer_id", "worker_id", "is_worker_confirmed", "is_rated",
}

func requestRow(id, customerID uuid.UUID, workerID *uuid.UUID, status models.RequestStatus) *sqlmock.Rows {
	var worker interface{}
	if workerID != nil {
		worker = workerID.String()
	}
	confirmed := status == models.StatusAccepted || status == models.StatusCompleted
	return sqlmock.NewRows(requestCols).AddRow(
		id.String(), "Fix kitchen tap", "Leaking since Monday", "Plumbing", "Jubilee Hills",
		string(status), customerID.String(), worker, confirmed, false,
	)
}

func TestAccept_LosesClaimRace(t *testing.T) {
	gdb, mock := mockDB(t)
	worker := uuid.New()
	reqID, customer := uuid.New(), uuid.New()

	// Both workers loaded the request as Pending; the guarded update only
	// matches while status is still Pending and worker_id is unset, so the
	// second writer affects zero rows.
	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, nil, models.StatusPending))
	mock.ExpectExec(`UPDATE "service_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	app := lifecycleApp(gdb, worker)
	code, body := doJSON(t, app, "PUT", "/requests/accept/"+reqID.String(), "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "no longer available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_WinsClaimRace(t *testing.T) {
	gdb, mock := mockDB(t)
	worker := uuid.New()
	reqID, customer := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, nil, models.StatusPending))
	mock.ExpectExec(`UPDATE "service_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := lifecycleApp(gdb, worker)
	code, body := doJSON(t, app, "PUT", "/requests/accept/"+reqID.String(), "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "accepted successfully")
	assert.Contains(t, body, `"status":"Accepted"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_LosesStateRace(t *testing.T) {
	gdb, mock := mockDB(t)
	worker := uuid.New()
	reqID, customer := uuid.New(), uuid.New()

	// Loaded as Assigned to this worker, but the customer cancelled (or the
	// worker confirmed on another device) before the write landed.
	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, &worker, models.StatusAssigned))
	mock.ExpectExec(`UPDATE "service_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	app := lifecycleApp(gdb, worker)
	code, body := doJSON(t, app, "PUT", "/requests/reject/"+reqID.String(), `{"rejectionMessage":"Out of town"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "state changed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplete_LosesStateRace(t *testing.T) {
	gdb, mock := mockDB(t)
	worker := uuid.New()
	reqID, customer := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, &worker, models.StatusAccepted))
	mock.ExpectExec(`UPDATE "service_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	app := lifecycleApp(gdb, worker)
	code, body := doJSON(t, app, "PUT", "/requests/complete/"+reqID.String(), "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "state changed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_LosesStateRace(t *testing.T) {
	gdb, mock := mockDB(t)
	customer := uuid.New()
	reqID := uuid.New()

	// The delete is conditional on the request still being cancelable, so a
	// worker's accept racing ahead leaves nothing to delete.
	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, nil, models.StatusPending))
	mock.ExpectExec(`DELETE FROM "service_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	app := lifecycleApp(gdb, customer)
	code, body := doJSON(t, app, "DELETE", "/requests/"+reqID.String(), "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, "state changed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_DeletesWhileStillPending(t *testing.T) {
	gdb, mock := mockDB(t)
	customer := uuid.New()
	reqID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "service_requests" WHERE id =`).
		WillReturnRows(requestRow(reqID, customer, nil, models.StatusPending))
	mock.ExpectExec(`DELETE FROM "service_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := lifecycleApp(gdb, customer)
	code, body := doJSON(t, app, "DELETE", "/requests/"+reqID.String(), "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "cancelled successfully")
	assert.NoError(t, mock.ExpectationsWereMet())
}
