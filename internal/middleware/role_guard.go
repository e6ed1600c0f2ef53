package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return requireRole("ADMIN", "admin only")
}

//配達担当（DELIVERY）だけ許可します。

func DeliveryRoleGuard() echo.MiddlewareFunc {
	return requireRole("DELIVERY", "delivery only")
}

func requireRole(want string, msg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if role != want {
				return c.JSON(http.StatusForbidden, errorJSON(msg))
			}

			return next(c)
		}
	}
}
