package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
	"github.com/saisidhanth1551/CommUnity-care/internal/utils"
)

type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	Expires    int
	UploadDir  string
	AppBaseURL string
}

type RegisterReq struct {
	Name        string   `json:"name" validate:"required,min=3"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	PhoneNumber string   `json:"phoneNumber" validate:"required"`
	Roles       []string `json:"roles"`
	Categories  []string `json:"categories"`
}

// normalizeRoles lowercases, trims and de-duplicates a role list.
func normalizeRoles(roles []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func validateRoles(roles []string) error {
	if len(roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}
	for _, r := range roles {
		if !models.IsValidRole(r) {
			return fmt.Errorf("invalid role: %s", r)
		}
	}
	return nil
}

func validateCategories(categories []string) error {
	for _, cat := range categories {
		if !models.IsValidCategory(cat) {
			return fmt.Errorf("invalid category: %s", cat)
		}
	}
	return nil
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body."})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if !isDigitsLen(req.PhoneNumber, 10) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("%s is not a valid 10-digit phone number", req.PhoneNumber),
		})
	}

	roles := normalizeRoles(req.Roles)
	if len(roles) == 0 {
		roles = []string{string(models.RoleCustomer)}
	}
	if err := validateRoles(roles); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	// Skill categories only make sense for workers.
	categories := req.Categories
	isWorker := false
	for _, r := range roles {
		if r == string(models.RoleWorker) {
			isWorker = true
		}
	}
	if !isWorker {
		categories = []string{}
	} else if err := validateCategories(categories); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "User already exists"})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
	}
	if err := h.DB.Where("phone_number = ?", req.PhoneNumber).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Phone number already registered"})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
	}

	// Hashed once here, never re-hashed on unrelated profile updates.
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not process password."})
	}

	u := models.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashed,
		PhoneNumber: req.PhoneNumber,
	}
	u.SetRoles(roles)
	u.SetCategories(categories)

	if err := h.DB.Create(&u).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user data"})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), u.RoleList(), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not create token."})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  u,
	})
}

type LoginReq struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body."})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.PhoneNumber)
	if email == "" && phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email or phone number is required."})
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Password is required."})
	}

	var u models.User
	var err error
	if email != "" {
		err = h.DB.Where("email = ?", email).First(&u).Error
	} else {
		err = h.DB.Where("phone_number = ?", phone).First(&u).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
	}

	// Optional role check: the client dashboards log in as a specific role.
	if req.Role != "" {
		if !u.HasRole(strings.ToLower(strings.TrimSpace(req.Role))) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": fmt.Sprintf("You don't have the '%s' role.", strings.ToLower(req.Role)),
			})
		}
	}

	if !utils.CheckPassword(u.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), u.RoleList(), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not create token."})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	return c.JSON(u)
}

type UpdateUserReq struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	PhoneNumber *string   `json:"phoneNumber"`
	Password    *string   `json:"password"`
	Roles       *[]string `json:"roles"`
	Categories  *[]string `json:"categories"`
}

func (h *AuthHandler) UpdateUser(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req UpdateUserReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body."})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 3 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Name should be at least 3 characters long."})
		}
		u.Name = name
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid email format."})
		}
		if email != u.Email {
			var other models.User
			if err := h.DB.Where("email = ? AND id <> ?", email, uid).First(&other).Error; err == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email already in use."})
			} else if err != gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
			}
			u.Email = email
		}
	}

	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if !isDigitsLen(phone, 10) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("%s is not a valid 10-digit phone number", phone),
			})
		}
		if phone != u.PhoneNumber {
			var other models.User
			if err := h.DB.Where("phone_number = ? AND id <> ?", phone, uid).First(&other).Error; err == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Phone number already in use."})
			} else if err != gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error."})
			}
			u.PhoneNumber = phone
		}
	}

	if req.Password != nil {
		if len(*req.Password) < 8 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Password should be at least 8 characters long."})
		}
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not process password."})
		}
		u.Password = hashed
	}

	if req.Roles != nil {
		roles := normalizeRoles(*req.Roles)
		// The role set can never go empty; dropping the last role is rejected.
		if err := validateRoles(roles); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		u.SetRoles(roles)
	}

	if req.Categories != nil {
		if err := validateCategories(*req.Categories); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		u.SetCategories(*req.Categories)
	}

	// Categories are cleared whenever the worker role is absent.
	if !u.HasRole(string(models.RoleWorker)) {
		u.SetCategories([]string{})
	}

	if err := h.DB.Save(&u).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not update user."})
	}

	return c.JSON(u)
}

func (h *AuthHandler) DeleteUser(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	res := h.DB.Delete(&models.User{}, "id = ?", uid)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not delete user."})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// UploadPhoto stores a profile picture (multipart field: photo) and records
// its public path on the user.
func (h *AuthHandler) UploadPhoto(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "photo is required (multipart field: photo)"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "photo must be jpg/jpeg/png"})
	}
	if file.Size > 2*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "photo max size is 2MB"})
	}

	dir := filepath.Join(h.UploadDir, "profiles", uid.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create upload dir"})
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save file"})
	}

	publicURL := fmt.Sprintf("/uploads/profiles/%s/%s", uid.String(), filename)
	if base := strings.TrimRight(h.AppBaseURL, "/"); base != "" {
		publicURL = base + publicURL
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", uid).
		Update("profile_picture", publicURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not update user."})
	}

	return c.JSON(fiber.Map{
		"message":        "Profile picture updated.",
		"profilePicture": publicURL,
	})
}
