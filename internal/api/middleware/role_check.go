package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
)

// RoleManager は管理系エンドポイントが要求するロール
const RoleManager = "manager"

// RequireRole は X-User-Role ヘッダーが指定ロールであることを要求するミドルウェア
// 認証基盤は外部にあり、ここではゲートウェイが付与したヘッダーを信頼する
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-User-Role") != role {
				return api.NewError(http.StatusForbidden, api.CodeAccessDenied, "この操作には権限が必要です")
			}
			return next(c)
		}
	}
}
