package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

type WalletHandler struct {
	svc service.WalletService
}

func NewWalletHandler(svc service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type withdrawBody struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func toWalletResponse(w *model.UserWallet) map[string]interface{} {
	return map[string]interface{}{
		"revenueAmount": w.RevenueAmount,
		"depositAmount": w.DepositAmount,
	}
}

func (h *WalletHandler) Get(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	w, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}

func (h *WalletHandler) Withdraw(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body withdrawBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	w, err := h.svc.Withdraw(c.Request().Context(), uid, body.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWalletResponse(w))
}
