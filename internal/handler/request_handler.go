package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

type RequestHandler struct {
	svc    service.RequestService
	notify service.NotificationService
}

func NewRequestHandler(svc service.RequestService, notify service.NotificationService) *RequestHandler {
	return &RequestHandler{svc: svc, notify: notify}
}

type createRequestBody struct {
	BookID       string `json:"bookId" validate:"required"`
	SellerID     string `json:"sellerId" validate:"required"`
	OfferedPrice int64  `json:"offeredPrice"`
	TransferMode string `json:"transferMode" validate:"required,oneof=self_transfer shipping pickup"`
	Message      string `json:"message" validate:"max=1000"`
}

type deliveryDateBody struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type RequestResponse struct {
	ID                   string  `json:"id"`
	BookID               string  `json:"bookId"`
	BuyerID              string  `json:"buyerId"`
	SellerID             string  `json:"sellerId"`
	OfferedPrice         int64   `json:"offeredPrice"`
	TransferMode         string  `json:"transferMode"`
	Message              *string `json:"message,omitempty"`
	ExpectedDeliveryDate *string `json:"expectedDeliveryDate,omitempty"`
	Status               string  `json:"status"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

func toRequestResponse(r *model.PurchaseRequest) RequestResponse {
	var date *string
	if r.ExpectedDeliveryDate != nil {
		val := r.ExpectedDeliveryDate.UTC().Format("2006-01-02")
		date = &val
	}
	return RequestResponse{
		ID:                   r.ID,
		BookID:               r.BookID,
		BuyerID:              r.BuyerUID,
		SellerID:             r.SellerUID,
		OfferedPrice:         r.OfferedPrice,
		TransferMode:         string(r.TransferMode),
		Message:              r.Message,
		ExpectedDeliveryDate: date,
		Status:               string(r.Status),
		CreatedAt:            r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            r.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *RequestHandler) Create(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body createRequestBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	req, err := h.svc.Create(c.Request().Context(), service.CreateRequestInput{
		BookID:       body.BookID,
		BuyerUID:     uid,
		SellerUID:    body.SellerID,
		OfferedPrice: body.OfferedPrice,
		TransferMode: model.TransferMode(body.TransferMode),
		Message:      body.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestResponse(req))
}

func (h *RequestHandler) Get(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	req, err := h.svc.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	if h.notify != nil {
		_ = h.notify.MarkByRelated(c.Request().Context(), uid, req.ID)
	}
	return c.JSON(http.StatusOK, toRequestResponse(req))
}

func (h *RequestHandler) ListMine(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	role := model.Party(c.QueryParam("role"))
	if role == "" {
		role = model.PartyBuyer
	}
	list, err := h.svc.List(c.Request().Context(), uid, role)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]RequestResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toRequestResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) Accept(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	req, err := h.svc.Accept(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResponse(req))
}

func (h *RequestHandler) Reject(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	req, err := h.svc.Reject(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResponse(req))
}

func (h *RequestHandler) SetDeliveryDate(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body deliveryDateBody
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		return writeError(c, service.ErrInvalidDate)
	}
	req, err := h.svc.SetExpectedDeliveryDate(c.Request().Context(), c.Param("id"), uid, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResponse(req))
}
