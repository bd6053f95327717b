package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// StatusFor maps a workflow error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case service.ErrNotFound.Code:
		return http.StatusNotFound
	case service.ErrForbidden.Code:
		return http.StatusForbidden
	case service.ErrIllegalTransition.Code, service.ErrAlreadyVerified.Code:
		return http.StatusConflict
	case service.ErrOtpExpired.Code:
		return http.StatusGone
	case service.ErrInvalidInput.Code:
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func writeError(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(StatusFor(se.Code), NewErrorResponse(se.Code, se.Message))
	}
	log.Printf("[http] rid=%s method=%s path=%s err=%v", reqctx.RID(c.Request().Context()), c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "internal error"))
}

func actor(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func missingActor(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}

// bind decodes the body into dst and runs the registered validator.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return &service.Error{Code: service.ErrInvalidInput.Code, Message: "invalid json"}
	}
	if err := c.Validate(dst); err != nil {
		return &service.Error{Code: service.ErrInvalidInput.Code, Message: err.Error()}
	}
	return nil
}
