package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

// DeliveryHandler serves the OTP handshake and the two-party confirmations.
type DeliveryHandler struct {
	otp     service.OTPService
	confirm service.ConfirmationService
}

func NewDeliveryHandler(otp service.OTPService, confirm service.ConfirmationService) *DeliveryHandler {
	return &DeliveryHandler{otp: otp, confirm: confirm}
}

type verifyOTPBody struct {
	OtpCode string `json:"otpCode" validate:"required,max=32"`
}

type confirmDeliveryBody struct {
	Party string `json:"party" validate:"required,oneof=buyer seller"`
}

type confirmPaymentBody struct {
	Party         string `json:"party" validate:"required,oneof=buyer seller"`
	PaymentMethod string `json:"paymentMethod" validate:"max=64"`
}

type ConfirmationResponse struct {
	RequestID               string  `json:"requestId"`
	OTPIssued               bool    `json:"otpIssued"`
	OTPSentAt               *string `json:"otpSentAt,omitempty"`
	OTPVerifiedAt           *string `json:"otpVerifiedAt,omitempty"`
	BuyerConfirmedDelivery  bool    `json:"buyerConfirmedDelivery"`
	SellerConfirmedDelivery bool    `json:"sellerConfirmedDelivery"`
	BuyerConfirmedPayment   bool    `json:"buyerConfirmedPayment"`
	SellerConfirmedPayment  bool    `json:"sellerConfirmedPayment"`
	PaymentMethod           *string `json:"paymentMethod,omitempty"`
	FinalPayoutProcessed    bool    `json:"finalPayoutProcessed"`
}

type PayoutResponse struct {
	RequestID    string `json:"requestId"`
	OfferedPrice int64  `json:"offeredPrice"`
	SellerBonus  int64  `json:"sellerBonus"`
	SellerPayout int64  `json:"sellerPayout"`
	PlatformFee  int64  `json:"platformFee"`
	ProcessedAt  string `json:"processedAt"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	val := t.UTC().Format(time.RFC3339)
	return &val
}

func toConfirmationResponse(st *service.ConfirmationStatus) ConfirmationResponse {
	return ConfirmationResponse{
		RequestID:               st.RequestID,
		OTPIssued:               st.OTPIssued,
		OTPSentAt:               formatTime(st.OTPSentAt),
		OTPVerifiedAt:           formatTime(st.OTPVerifiedAt),
		BuyerConfirmedDelivery:  st.BuyerConfirmedDelivery,
		SellerConfirmedDelivery: st.SellerConfirmedDelivery,
		BuyerConfirmedPayment:   st.BuyerConfirmedPayment,
		SellerConfirmedPayment:  st.SellerConfirmedPayment,
		PaymentMethod:           st.PaymentMethod,
		FinalPayoutProcessed:    st.FinalPayoutProcessed,
	}
}

func (h *DeliveryHandler) IssueOTP(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	issued, err := h.otp.Issue(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requestId": issued.RequestID,
		"sentAt":    issued.SentAt.UTC().Format(time.RFC3339),
		"expiresAt": issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *DeliveryHandler) VerifyOTP(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body verifyOTPBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	verified, err := h.otp.Verify(c.Request().Context(), c.Param("id"), uid, body.OtpCode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requestId":  verified.RequestID,
		"verifiedAt": verified.VerifiedAt.UTC().Format(time.RFC3339),
	})
}

func (h *DeliveryHandler) ConfirmDelivery(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body confirmDeliveryBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	st, err := h.confirm.ConfirmDelivery(c.Request().Context(), c.Param("id"), uid, model.Party(body.Party))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConfirmationResponse(st))
}

func (h *DeliveryHandler) ConfirmPayment(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body confirmPaymentBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	out, err := h.confirm.ConfirmPayment(c.Request().Context(), c.Param("id"), uid, model.Party(body.Party), body.PaymentMethod)
	if err != nil {
		return writeError(c, err)
	}
	var payout *PayoutResponse
	if out.Payout != nil {
		payout = &PayoutResponse{
			RequestID:    out.Payout.RequestID,
			OfferedPrice: out.Payout.OfferedPrice,
			SellerBonus:  out.Payout.SellerBonus,
			SellerPayout: out.Payout.SellerPayout,
			PlatformFee:  out.Payout.PlatformFee,
			ProcessedAt:  out.Payout.ProcessedAt.UTC().Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": toConfirmationResponse(out.Status),
		"payout": payout,
	})
}

func (h *DeliveryHandler) Status(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	st, err := h.confirm.GetStatus(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toConfirmationResponse(st))
}
