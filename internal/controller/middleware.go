package controller

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth проверяет Bearer-токен и кладёт claims в контекст запроса:
// user_id, admin, email_verified
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}

			admin, _ := claims["admin"].(bool)
			verified, _ := claims["email_verified"].(bool)

			c.Set("user_id", sub)
			c.Set("admin", admin)
			c.Set("email_verified", verified)

			return next(c)
		}
	}
}

// RequireVerifiedEmail пускает дальше только пользователей с
// подтверждённой почтой
func RequireVerifiedEmail() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			verified, _ := c.Get("email_verified").(bool)
			if !verified {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "email is not verified"})
			}
			return next(c)
		}
	}
}

// userID достаёт идентификатор пользователя из контекста запроса
func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// isAdmin достаёт признак администратора из контекста запроса
func isAdmin(c echo.Context) bool {
	admin, _ := c.Get("admin").(bool)
	return admin
}
