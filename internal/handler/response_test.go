package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/service"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  *service.Error
		want int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrIllegalTransition, http.StatusConflict},
		{service.ErrAlreadyVerified, http.StatusConflict},
		{service.ErrOtpExpired, http.StatusGone},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrInvalidOffer, http.StatusUnprocessableEntity},
		{service.ErrSelfPurchase, http.StatusUnprocessableEntity},
		{service.ErrInvalidDate, http.StatusUnprocessableEntity},
		{service.ErrInvalidOtp, http.StatusUnprocessableEntity},
		{service.ErrOtpNotVerified, http.StatusUnprocessableEntity},
		{service.ErrDeliveryNotConfirmed, http.StatusUnprocessableEntity},
		{service.ErrPaymentMethodRequired, http.StatusUnprocessableEntity},
		{service.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.err.Code, func(t *testing.T) {
			require.Equal(t, tc.want, StatusFor(tc.err.Code))
		})
	}
}

func TestWriteError(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, service.ErrOtpExpired))
	require.Equal(t, http.StatusGone, rec.Code)
	require.JSONEq(t, `{"error":{"code":"OtpExpired","message":"delivery code has expired"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, errors.New("connection refused")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal_error")
}
