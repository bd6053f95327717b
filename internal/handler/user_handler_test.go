package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/service"
	"github.com/stretchr/testify/require"
)

type stubDirectory map[string]string

func (d stubDirectory) GetUser(_ context.Context, uid string) (*auth.UserRecord, error) {
	name, ok := d[uid]
	if !ok {
		return nil, errors.New("no such user")
	}
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid, DisplayName: name}}, nil
}

// stubRequests serves a single request; the other methods are unused here.
type stubRequests struct {
	service.RequestService
	req *model.PurchaseRequest
}

func (s stubRequests) Get(_ context.Context, requestID, actorUID string) (*model.PurchaseRequest, error) {
	if requestID != s.req.ID {
		return nil, service.ErrNotFound
	}
	if !s.req.IsParty(actorUID) {
		return nil, service.ErrForbidden
	}
	return s.req, nil
}

func TestGetCounterpart(t *testing.T) {
	req := &model.PurchaseRequest{ID: "r1", BuyerUID: "b", SellerUID: "s", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	h := NewUserHandler(stubDirectory{"b": "Bea", "s": "Sam"}, stubRequests{req: req})

	cases := []struct {
		name   string
		uid    string
		id     string
		status int
		want   string
	}{
		{"buyer sees seller", "b", "r1", http.StatusOK, `"displayName":"Sam"`},
		{"seller sees buyer", "s", "r1", http.StatusOK, `"role":"buyer"`},
		{"stranger", "x", "r1", http.StatusForbidden, "Forbidden"},
		{"unknown request", "b", "r2", http.StatusNotFound, "NotFound"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)
			c.Set("uid", tc.uid)
			require.NoError(t, h.GetCounterpart(c))
			require.Equal(t, tc.status, rec.Code)
			require.Contains(t, rec.Body.String(), tc.want)
		})
	}
}
