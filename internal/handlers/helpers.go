package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

var validate = validator.New()

// UserMini is the identity shape joined into request listings and rating
// history: contact info only, never the credential.
type UserMini struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phoneNumber"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
	Rating         float64 `json:"rating"`
}

func toUserMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	return &UserMini{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
		Rating:         u.Rating,
	}
}

func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	rawID, ok := c.Locals("userId").(string)
	if !ok || rawID == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	uID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return uID, nil
}

// lifecycleError maps guard errors to the response taxonomy: ownership
// mismatches to 403, state conflicts and bad input to 400.
func lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrNotAssignedWorker),
		errors.Is(err, models.ErrNotRequestOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNoAssignedWorker),
		errors.Is(err, models.ErrWorkerMismatch),
		errors.Is(err, models.ErrAlreadyRated),
		errors.Is(err, models.ErrRatingOutOfRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
	}
}

func isDigitsLen(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
