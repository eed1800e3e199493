package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
)

// internalError は詳細をログに残し、内部情報を含まない500を返す
// ドライバー由来のエラーチェーンをレスポンスに漏らさないこと
func internalError(c echo.Context, err error) error {
	logger.Error("内部エラー",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err),
	)
	return api.NewError(http.StatusInternalServerError, api.CodeInternal, "内部サーバーエラー")
}
