package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

type RatingHandler struct {
	DB *gorm.DB
}

func NewRatingHandler(db *gorm.DB) *RatingHandler {
	return &RatingHandler{DB: db}
}

type RateWorkerReq struct {
	RequestID string `json:"requestId" validate:"required"`
	WorkerID  string `json:"workerId" validate:"required"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

// RateWorker records a one-time rating on a completed request and
// recomputes the worker's aggregate. Both writes share one transaction so
// the stored aggregate can never drift from the rated requests.
func (h *RatingHandler) RateWorker(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req RateWorkerReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body."})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Request ID, worker ID, and rating are required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Rating must be between 1 and 5"})
	}

	reqUUID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request ID."})
	}
	workerUUID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid worker ID."})
	}

	var sr models.ServiceRequest
	if err := h.DB.First(&sr, "id = ?", reqUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Service request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not submit rating."})
	}

	var worker models.User
	if err := h.DB.First(&worker, "id = ?", workerUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Worker not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not submit rating."})
	}

	if err := sr.RateBy(uid, workerUUID, req.Rating, req.Feedback); err != nil {
		return lifecycleError(c, err)
	}

	var aggregate float64
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		// The is_rated guard keeps the write single-shot under concurrency.
		res := tx.Model(&models.ServiceRequest{}).
			Where("id = ? AND status = ? AND is_rated = ?", sr.ID, models.StatusCompleted, false).
			Updates(map[string]interface{}{
				"worker_rating":   sr.WorkerRating,
				"worker_feedback": sr.WorkerFeedback,
				"is_rated":        sr.IsRated,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrAlreadyRated
		}

		var ratings []int
		if err := tx.Model(&models.ServiceRequest{}).
			Where("worker_id = ? AND is_rated = ?", workerUUID, true).
			Pluck("worker_rating", &ratings).Error; err != nil {
			return err
		}

		aggregate = models.AverageRating(ratings)
		return tx.Model(&models.User{}).
			Where("id = ?", workerUUID).
			Update("rating", aggregate).Error
	})
	if txErr != nil {
		return lifecycleError(c, txErr)
	}

	return c.JSON(fiber.Map{
		"message":      "Rating submitted successfully",
		"rating":       req.Rating,
		"workerRating": aggregate,
		"request": fiber.Map{
			"id":      sr.ID,
			"status":  sr.Status,
			"isRated": sr.IsRated,
			"rating":  sr.WorkerRating,
		},
	})
}

// GetWorkerRatings returns a worker's rated-request history with the
// stored aggregate. Public, no auth.
func (h *RatingHandler) GetWorkerRatings(c *fiber.Ctx) error {
	workerUUID, err := uuid.Parse(c.Params("workerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid worker ID."})
	}

	var worker models.User
	if err := h.DB.First(&worker, "id = ?", workerUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Worker not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not fetch ratings."})
	}

	var rated []models.ServiceRequest
	if err := h.DB.
		Select("worker_rating", "worker_feedback", "created_at").
		Where("worker_id = ? AND is_rated = ?", workerUUID, true).
		Order("created_at DESC").
		Find(&rated).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not fetch ratings."})
	}

	ratings := make([]fiber.Map, 0, len(rated))
	for _, r := range rated {
		ratings = append(ratings, fiber.Map{
			"workerRating":   r.WorkerRating,
			"workerFeedback": r.WorkerFeedback,
			"created_at":     r.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"worker": fiber.Map{
			"id":            worker.ID,
			"name":          worker.Name,
			"averageRating": worker.Rating,
		},
		"ratings": ratings,
	})
}
