package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware 편집 세션 인증 미들웨어.
// 토큰의 storyboard 클레임이 경로 파라미터 param 과 같아야 통과
func SessionMiddleware(jwtManager *JWTManager, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := extractToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// 토큰 검증
		claims, err := jwtManager.ValidateSessionToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		if claims.StoryboardID != c.Params(param) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "token does not grant access to this storyboard",
			})
		}

		c.Locals("storyboardID", claims.StoryboardID)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// extractToken Authorization 헤더, 없으면 token 쿼리(WebSocket)에서 토큰 추출
func extractToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing authorization token")
	}

	// Bearer 토큰 파싱
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
