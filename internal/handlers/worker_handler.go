package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

type WorkerHandler struct {
	DB *gorm.DB
}

func NewWorkerHandler(db *gorm.DB) *WorkerHandler {
	return &WorkerHandler{DB: db}
}

// GetWorkersByCategory lists workers whose skill set includes the category,
// excluding workers with an in-progress (Accepted) request in that same
// category. The busy filter is approximate: other categories and
// unconfirmed Assigned requests do not block a worker.
func (h *WorkerHandler) GetWorkersByCategory(c *fiber.Ctx) error {
	category := c.Params("category")
	if !models.IsValidCategory(category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid category."})
	}

	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not retrieve workers."})
	}

	var busyIDs []uuid.UUID
	if err := h.DB.Model(&models.ServiceRequest{}).
		Distinct("worker_id").
		Where("status = ? AND category = ? AND worker_id IS NOT NULL", models.StatusAccepted, category).
		Pluck("worker_id", &busyIDs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error. Could not retrieve workers."})
	}
	busy := make(map[uuid.UUID]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}

	workers := make([]fiber.Map, 0)
	for i := range users {
		u := &users[i]
		if !u.HasRole(string(models.RoleWorker)) || !u.HasCategory(category) || busy[u.ID] {
			continue
		}
		workers = append(workers, fiber.Map{
			"id":             u.ID,
			"name":           u.Name,
			"rating":         u.Rating,
			"categories":     u.CategoryList(),
			"profilePicture": u.ProfilePicture,
		})
	}

	return c.JSON(workers)
}

// GetDashboardStats returns a summary for the worker dashboard.
func (h *WorkerHandler) GetDashboardStats(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	count := func(statuses ...models.RequestStatus) int64 {
		var n int64
		if err := h.DB.Model(&models.ServiceRequest{}).
			Where("worker_id = ?", uid).
			Where("status IN ?", statuses).
			Count(&n).Error; err != nil {
			log.Printf("[DashboardStats] count failed for worker %s: %v", uid, err)
		}
		return n
	}

	var worker models.User
	if err := h.DB.First(&worker, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	return c.JSON(fiber.Map{
		"awaitingConfirmation": count(models.StatusAssigned),
		"inProgress":           count(models.StatusAccepted),
		"completed":            count(models.StatusCompleted),
		"rejected":             count(models.StatusRejected),
		"rating":               worker.Rating,
	})
}
