package handler

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/service"
)

type userDirectory interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// UserHandler resolves the public profile of the other party of a request.
type UserHandler struct {
	directory userDirectory
	requests  service.RequestService
}

func NewUserHandler(directory userDirectory, requests service.RequestService) *UserHandler {
	return &UserHandler{directory: directory, requests: requests}
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	Role        string  `json:"role"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

func (h *UserHandler) GetCounterpart(c echo.Context) error {
	uid := actor(c)
	if uid == "" {
		return missingActor(c)
	}
	req, err := h.requests.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	other, role := req.SellerUID, "seller"
	if uid == req.SellerUID {
		other, role = req.BuyerUID, "buyer"
	}
	user, err := h.directory.GetUser(c.Request().Context(), other)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("NotFound", "user not found"))
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         user.UID,
		Role:        role,
		DisplayName: user.DisplayName,
		PhotoURL:    strPtrOrNil(user.PhotoURL),
	})
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
