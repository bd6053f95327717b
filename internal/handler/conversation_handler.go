package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type MessageRequest struct {
	Body       string `json:"body" validate:"required,max=2000"`
	SenderName string `json:"senderName" validate:"max=128"`
}

type MessageResponse struct {
	ID         uint64 `json:"id"`
	SenderUID  string `json:"senderUid"`
	SenderName string `json:"senderName"`
	Body       string `json:"body"`
	CreatedAt  string `json:"createdAt"`
}

func toMessageResponse(m *model.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderUID:  m.SenderUID,
		SenderName: m.SenderName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	msgs, err := h.svc.Messages(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		resp = append(resp, toMessageResponse(&msgs[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	var body MessageRequest
	if err := bind(c, &body); err != nil {
		return writeError(c, err)
	}
	msg, err := h.svc.Post(c.Request().Context(), c.Param("id"), uid, body.SenderName, body.Body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}
