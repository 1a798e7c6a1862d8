package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateSessionToken("sb-1")
	require.NoError(t, err)

	claims, err := m.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sb-1", claims.StoryboardID)
	assert.Equal(t, "storyboard-api", claims.Issuer)
}

func TestSessionToken_Rejections(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateSessionToken("sb-1")
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).ValidateSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateSessionToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.GenerateSessionToken("sb-1")
	require.NoError(t, err)
	_, err = m.ValidateSessionToken(old)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func newTestApp(m *JWTManager) *fiber.App {
	app := fiber.New()
	app.Get("/boards/:id", SessionMiddleware(m, "id"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("storyboardID").(string))
	})
	return app
}

func TestSessionMiddleware(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	app := newTestApp(m)
	token, err := m.GenerateSessionToken("sb-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"bearer header", "/boards/sb-1", "Bearer " + token, fiber.StatusOK},
		{"query token", "/boards/sb-1?token=" + token, "", fiber.StatusOK},
		{"missing", "/boards/sb-1", "", fiber.StatusUnauthorized},
		{"bad format", "/boards/sb-1", "Token " + token, fiber.StatusUnauthorized},
		{"bad token", "/boards/sb-1", "Bearer nope", fiber.StatusUnauthorized},
		{"other storyboard", "/boards/sb-2", "Bearer " + token, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
