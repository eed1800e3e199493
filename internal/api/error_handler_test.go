package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "NewErrorのコードがそのまま返る",
			err:        NewError(http.StatusConflict, CodeInsufficientInventory, "チケットの在庫が不足しています"),
			wantStatus: http.StatusConflict,
			wantCode:   CodeInsufficientInventory,
		},
		{
			name:       "文字列メッセージのHTTPErrorはステータスからコードを導出",
			err:        echo.NewHTTPError(http.StatusNotFound, "イベントが見つかりません"),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
		{
			name:       "未知のエラーは500 INTERNAL",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			CustomHTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeErrorResponse(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestCustomHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, c.NoContent(http.StatusOK))

	// コミット済みレスポンスには何も書き込まない
	CustomHTTPErrorHandler(errors.New("late error"), c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCustomValidator(t *testing.T) {
	type payload struct {
		Quantity int `validate:"required,gte=1,lte=10"`
	}

	v := NewValidator()

	t.Run("正常な値は通過", func(t *testing.T) {
		assert.NoError(t, v.Validate(payload{Quantity: 3}))
	})

	t.Run("範囲外の値は400 INVALID_ARGUMENT", func(t *testing.T) {
		err := v.Validate(payload{Quantity: 11})
		require.Error(t, err)

		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)

		body, ok := he.Message.(ErrorResponse)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidArgument, body.Code)
	})
}
