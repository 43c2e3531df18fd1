package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saisidhanth1551/CommUnity-care/internal/utils"
)

const testSecret = "test-secret"

func protectedApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append([]fiber.Handler{Protect(testSecret)}, extra...)
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userId": c.Locals("userId"),
			"roles":  c.Locals("roles"),
		})
	})
	app.Get("/", chain...)
	return app
}

func TestProtect_MissingToken(t *testing.T) {
	app := protectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtect_MalformedHeader(t *testing.T) {
	app := protectedApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtect_InvalidToken(t *testing.T) {
	app := protectedApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtect_ExpiredToken(t *testing.T) {
	app := protectedApp()
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"customer"}, -1)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtect_WrongSecret(t *testing.T) {
	app := protectedApp()
	token, _ := utils.SignJWT("other-secret", "user-1", []string{"customer"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtect_ValidToken(t *testing.T) {
	app := protectedApp()
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"Customer"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoles_Allowed(t *testing.T) {
	app := protectedApp(RequireRoles("worker"))
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"worker"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoles_Denied(t *testing.T) {
	app := protectedApp(RequireRoles("worker"))
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"customer"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoles_MultiRoleUser(t *testing.T) {
	app := protectedApp(RequireRoles("worker"))
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"customer", "worker"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoles_AnyOf(t *testing.T) {
	app := protectedApp(RequireRoles("worker", "admin"))
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"admin"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoles_CaseNormalized(t *testing.T) {
	// Protect lowercases role claims before RequireRoles sees them.
	app := protectedApp(RequireRoles("worker"))
	token, _ := utils.SignJWT(testSecret, "user-1", []string{"Worker"}, 60)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
