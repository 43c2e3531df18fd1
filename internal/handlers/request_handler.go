package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

type RequestHandler struct {
	DB *gorm.DB
}

func NewRequestHandler(db *gorm.DB) *RequestHandler {
	return &RequestHandler{DB: db}
}

type CreateRequestReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Location    string `json:"location" validate:"required"`
	WorkerID    string `json:"workerId"`
}

type RequestResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Location          string     `json:"location"`
	Status            string     `json:"status"`
	IsWorkerConfirmed bool       `json:"isWorkerConfirmed"`
	RejectionMessage  string     `json:"rejectionMessage,omitempty"`
	WorkerRating      *int       `json:"workerRating,omitempty"`
	WorkerFeedback    string     `json:"workerFeedback,omitempty"`
	IsRated           bool       `json:"isRated"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Customer          *UserMini  `json:"customer,omitempty"`
	Worker            *UserMini  `json:"worker,omitempty"`
	CustomerID        string     `json:"customerId"`
	WorkerID          *uuid.UUID `json:"workerId,omitempty"`
}

func toRequestResponse(r *models.ServiceRequest) RequestResponse {
	return RequestResponse{
		ID:                r.ID.String(),
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Location:          r.Location,
		Status:            string(r.Status),
		IsWorkerConfirmed: r.IsWorkerConfirmed,
		RejectionMessage:  r.RejectionMessage,
		WorkerRating:      r.WorkerRating,
		WorkerFeedback:    r.WorkerFeedback,
		IsRated:           r.IsRated,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Customer:          toUserMini(r.Customer),
		Worker:            toUserMini(r.Worker),
		CustomerID:        r.CustomerID.String(),
		WorkerID:          r.WorkerID,
	}
}

// Create opens a new service request. When a workerId is supplied the
// request starts in Assigned state awaiting that worker's confirmation
// instead of entering the open marketplace.
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateRequestReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body."})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Please provide all required fields."})
	}
	if !models.IsValidCategory(req.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid category."})
	}

	sr := models.ServiceRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Status:      models.StatusPending,
		CustomerID:  uid,
	}

	if req.WorkerID != "" {
		workerUUID, err := uuid.Parse(req.WorkerID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid worker ID."})
		}

		var worker models.User
		if err := h.DB.First(&worker, "id = ?", workerUUID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Selected worker not found."})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not create request."})
		}
		if !worker.HasRole(string(models.RoleWorker)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Selected user is not a worker."})
		}

		sr.WorkerID = &workerUUID
		sr.Status = models.StatusAssigned
		sr.IsWorkerConfirmed = false
	}

	if err := h.DB.Create(&sr).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not create request."})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Service request created successfully.",
		"request": toRequestResponse(&sr),
	})
}

// GetAll lists every request with customer/worker identities joined.
func (h *RequestHandler) GetAll(c *fiber.Ctx) error {
	var requests []models.ServiceRequest
	if err := h.DB.
		Preload("Customer").
		Preload("Worker").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not retrieve requests."})
	}

	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestResponse(&requests[i]))
	}
	return c.JSON(out)
}

// GetMine lists the caller's customer-owned requests.
func (h *RequestHandler) GetMine(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var requests []models.ServiceRequest
	if err := h.DB.
		Preload("Customer").
		Preload("Worker").
		Where("customer_id = ?", uid).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not retrieve your requests."})
	}

	if len(requests) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No service requests found for your account."})
	}

	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestResponse(&requests[i]))
	}
	return c.JSON(out)
}

func (h *RequestHandler) loadRequest(c *fiber.Ctx) (*models.ServiceRequest, error) {
	reqUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request ID."})
	}

	var sr models.ServiceRequest
	if err := h.DB.First(&sr, "id = ?", reqUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Request not found."})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
	}
	return &sr, nil
}

// Accept claims a Pending request or confirms an Assigned one. The write is
// a conditional update keyed on the expected pre-state, so of two racing
// workers the first valid transition wins and the loser gets a conflict.
func (h *RequestHandler) Accept(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	sr, herr := h.loadRequest(c)
	if sr == nil {
		return herr
	}

	prev := sr.Status
	if err := sr.AcceptBy(uid); err != nil {
		return lifecycleError(c, err)
	}

	q := h.DB.Model(&models.ServiceRequest{}).Where("id = ? AND status = ?", sr.ID, prev)
	if prev == models.StatusPending {
		q = q.Where("worker_id IS NULL")
	} else {
		q = q.Where("worker_id = ?", uid)
	}
	res := q.Updates(map[string]interface{}{
		"status":              sr.Status,
		"worker_id":           sr.WorkerID,
		"is_worker_confirmed": sr.IsWorkerConfirmed,
	})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not accept request."})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Request is no longer available. It may have been claimed or cancelled."})
	}

	return c.JSON(fiber.Map{
		"message": "Request accepted successfully.",
		"request": toRequestResponse(sr),
	})
}

type RejectReq struct {
	RejectionMessage string `json:"rejectionMessage"`
}

// Reject lets the pre-assigned worker decline an Assigned request,
// capturing an optional reason.
func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var body RejectReq
	// The body is optional; a missing reason is fine.
	_ = c.BodyParser(&body)

	sr, herr := h.loadRequest(c)
	if sr == nil {
		return herr
	}

	if err := sr.RejectBy(uid, body.RejectionMessage); err != nil {
		return lifecycleError(c, err)
	}

	res := h.DB.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND worker_id = ?", sr.ID, models.StatusAssigned, uid).
		Updates(map[string]interface{}{
			"status":              sr.Status,
			"is_worker_confirmed": sr.IsWorkerConfirmed,
			"rejection_message":   sr.RejectionMessage,
		})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not reject request."})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Request state changed. Please refresh and try again."})
	}

	return c.JSON(fiber.Map{
		"message": "Request rejected.",
		"request": toRequestResponse(sr),
	})
}

// Complete marks an Accepted request done; only the assigned worker may.
func (h *RequestHandler) Complete(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	sr, herr := h.loadRequest(c)
	if sr == nil {
		return herr
	}

	if err := sr.CompleteBy(uid); err != nil {
		return lifecycleError(c, err)
	}

	res := h.DB.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND worker_id = ?", sr.ID, models.StatusAccepted, uid).
		Update("status", sr.Status)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not complete request."})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Request state changed. Please refresh and try again."})
	}

	return c.JSON(fiber.Map{
		"message": "Request has been marked as completed.",
		"request": toRequestResponse(sr),
	})
}

// Cancel removes a Pending or Assigned request entirely. There is no soft
// delete; cancelled requests leave no trace.
func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	sr, herr := h.loadRequest(c)
	if sr == nil {
		return herr
	}

	if err := sr.CancelableBy(uid); err != nil {
		return lifecycleError(c, err)
	}

	res := h.DB.
		Where("id = ? AND status IN ?", sr.ID, []models.RequestStatus{models.StatusPending, models.StatusAssigned}).
		Delete(&models.ServiceRequest{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not cancel request."})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Request state changed. Please refresh and try again."})
	}

	return c.JSON(fiber.Map{"message": "Request has been cancelled successfully."})
}
