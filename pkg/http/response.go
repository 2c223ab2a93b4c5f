package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as the whole JSON body with 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes {"error": message} with status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}

// AppErrorResponse writes err as an error body. Only the AppError message is exposed; wrapped
// causes and non-AppErrors stay out of the response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}

// HTTPErrorHandler renders echo's own errors (unknown route, body too large) as error bodies.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = ErrorResponse(c, he.Code, msg)
		return
	}
	_ = AppErrorResponse(c, err)
}
