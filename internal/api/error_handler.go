package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
)

// 安定したエラーコード
// クライアントはHTTPステータスではなくこのコードで分岐する
const (
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeNotFound              = "NOT_FOUND"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodePaymentDeclined       = "PAYMENT_DECLINED"
	CodeAccessDenied          = "ACCESS_DENIED"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
// 内部の識別子やスタックトレースは含めない
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewError は安定コード付きのHTTPエラーを作成する
func NewError(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, ErrorResponse{Error: message, Code: code})
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status = http.StatusInternalServerError
		body   = ErrorResponse{Error: "内部サーバーエラー", Code: CodeInternal}
	)

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch m := he.Message.(type) {
		case ErrorResponse:
			body = m
		case string:
			body = ErrorResponse{Error: m, Code: codeForStatus(status)}
		default:
			body = ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if status >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", status),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(status, body); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInvalidArgument
	case http.StatusPaymentRequired:
		return CodePaymentDeclined
	case http.StatusForbidden:
		return CodeAccessDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}
