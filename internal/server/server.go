package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/bookswap-backend/internal/config"
	"github.com/shinyyama/bookswap-backend/internal/events"
	"github.com/shinyyama/bookswap-backend/internal/handler"
	appmw "github.com/shinyyama/bookswap-backend/internal/middleware"
	"github.com/shinyyama/bookswap-backend/internal/receipt"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/shinyyama/bookswap-backend/internal/service"
	"gorm.io/gorm"
)

type Deps struct {
	DB        *gorm.DB
	Auth      *appmw.AuthMiddleware
	Publisher events.Publisher
	Archiver  receipt.Archiver
	Workflow  config.Workflow
	GitSHA    string
	BuildTime string
	// Options are applied to every workflow service (clock, code generator).
	Options []service.Option
}

type Server struct {
	e *echo.Echo
}

// ErrNoAuth is returned by New when Deps.Auth is nil.
var ErrNoAuth = errors.New("server: auth middleware is required")

func New(d Deps) (*Server, error) {
	if d.Auth == nil {
		return nil, ErrNoAuth
	}
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID()...)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DevUserHeader},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	requestRepo := repository.NewPurchaseRequestRepository(d.DB)
	bookRepo := repository.NewBookRepository(d.DB)
	confirmRepo := repository.NewDeliveryConfirmationRepository(d.DB)
	walletRepo := repository.NewUserWalletRepository(d.DB)
	convRepo := repository.NewConversationRepository(d.DB)

	notifySvc := service.NewNotificationService(repository.NewNotificationRepository(d.DB), d.Publisher)
	messenger := service.NewDirectMessenger(convRepo)
	requestSvc := service.NewRequestService(requestRepo, bookRepo, messenger, notifySvc, d.Workflow.DeliveryHorizon, d.Options...)
	otpSvc := service.NewOTPService(requestRepo, confirmRepo, messenger, notifySvc, d.Options...)
	payoutSvc := service.NewPayoutService(repository.NewTransactor(d.DB), confirmRepo, walletRepo, bookRepo, requestSvc,
		notifySvc, d.Archiver, service.PayoutPolicy{SellerBonus: d.Workflow.SellerBonus, PlatformFee: d.Workflow.PlatformFee}, d.Options...)
	confirmSvc := service.NewConfirmationService(requestRepo, confirmRepo, payoutSvc, notifySvc, d.Options...)
	convSvc := service.NewConversationService(requestRepo, convRepo, notifySvc)

	requestHandler := handler.NewRequestHandler(requestSvc, notifySvc)
	deliveryHandler := handler.NewDeliveryHandler(otpSvc, confirmSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	notifyHandler := handler.NewNotificationHandler(notifySvc)
	walletHandler := handler.NewWalletHandler(service.NewWalletService(walletRepo))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		})
	})

	auth := d.Auth
	api := e.Group("/api", auth.RequireAuth)
	api.POST("/requests", requestHandler.Create)
	api.GET("/requests/:id", requestHandler.Get)
	api.GET("/me/requests", requestHandler.ListMine)
	api.POST("/requests/:id/accept", requestHandler.Accept)
	api.POST("/requests/:id/reject", requestHandler.Reject)
	api.PUT("/requests/:id/delivery-date", requestHandler.SetDeliveryDate)
	api.POST("/requests/:id/otp", deliveryHandler.IssueOTP)
	api.POST("/requests/:id/otp/verify", deliveryHandler.VerifyOTP)
	api.POST("/requests/:id/confirm-delivery", deliveryHandler.ConfirmDelivery)
	api.POST("/requests/:id/confirm-payment", deliveryHandler.ConfirmPayment)
	api.GET("/requests/:id/confirmation", deliveryHandler.Status)
	api.GET("/requests/:id/messages", convHandler.ListMessages)
	api.POST("/requests/:id/messages", convHandler.CreateMessage)
	api.GET("/notifications", notifyHandler.List)
	api.POST("/notifications/read", notifyHandler.MarkAllRead)
	if client := auth.Client(); client != nil {
		api.GET("/requests/:id/counterpart", handler.NewUserHandler(client, requestSvc).GetCounterpart)
	}
	api.GET("/me/wallet", walletHandler.Get)
	api.POST("/me/wallet/withdraw", walletHandler.Withdraw)

	return &Server{e: e}, nil
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	if strings.HasSuffix(u.Hostname(), "vercel.app") {
		return true, nil
	}
	return false, nil
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
