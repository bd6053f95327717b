package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
	"gorm.io/gorm"
)

// OTPValidity is how long an issued delivery code can be verified. The code
// message shown to the buyer is rendered from the same value.
const OTPValidity = 30 * time.Minute

type OtpIssued struct {
	RequestID string
	SentAt    time.Time
	ExpiresAt time.Time
}

type OtpVerified struct {
	RequestID  string
	VerifiedAt time.Time
}

// OTPService issues and verifies the single-use delivery code of a request.
type OTPService interface {
	Issue(ctx context.Context, requestID, actorUID string) (*OtpIssued, error)
	Verify(ctx context.Context, requestID, actorUID, code string) (*OtpVerified, error)
}

type otpService struct {
	requests      repository.PurchaseRequestRepository
	confirmations repository.DeliveryConfirmationRepository
	messenger     DirectMessenger
	notifier      NotificationPort
	now           func() time.Time
	genCode       func() (string, error)
}

func NewOTPService(requests repository.PurchaseRequestRepository, confirmations repository.DeliveryConfirmationRepository, messenger DirectMessenger, notifier NotificationPort, opts ...Option) OTPService {
	st := newSettings(opts)
	return &otpService{
		requests:      requests,
		confirmations: confirmations,
		messenger:     messenger,
		notifier:      notifier,
		now:           st.now,
		genCode:       st.otpCode,
	}
}

func (s *otpService) Issue(ctx context.Context, requestID, actorUID string) (*OtpIssued, error) {
	req, err := s.loadRequest(ctx, requestID, actorUID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestStatusAccepted {
		return nil, ErrNotFound
	}
	code, err := s.genCode()
	if err != nil {
		return nil, err
	}
	now := s.now()

	created, err := s.confirmations.CreateIfAbsent(ctx, &model.DeliveryConfirmation{
		ID:                uuid.NewString(),
		PurchaseRequestID: req.ID,
		BuyerUID:          req.BuyerUID,
		SellerUID:         req.SellerUID,
		OTPCode:           code,
		OTPSentAt:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		n, err := s.confirmations.ReplacePendingOTP(ctx, req.ID, code, now)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrAlreadyVerified
		}
	}

	s.dispatch(ctx, req, code)
	return &OtpIssued{RequestID: req.ID, SentAt: now, ExpiresAt: now.Add(OTPValidity)}, nil
}

// dispatch delivers the code to the buyer over the direct channel and as an
// in-app notification. Either may fail without affecting the other.
func (s *otpService) dispatch(ctx context.Context, req *model.PurchaseRequest, code string) {
	body := fmt.Sprintf("Your delivery code is %s. It is valid for %d minutes. Share it with the seller only when you have received the book.",
		code, int(OTPValidity/time.Minute))
	if s.messenger != nil {
		if err := s.messenger.Send(ctx, req, model.SystemSenderUID, "BookSwap", body); err != nil {
			log.Printf("[otp] rid=%s request=%s stage=message err=%v", reqctx.RID(ctx), req.ID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, req.BuyerUID, NotifyOTPIssued, "Delivery code", body, req.ID, model.PriorityHigh)
	}
}

func (s *otpService) Verify(ctx context.Context, requestID, actorUID, code string) (*OtpVerified, error) {
	req, err := s.loadRequest(ctx, requestID, actorUID)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	d, err := s.confirmations.FindByRequest(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOtp
		}
		return nil, err
	}
	if d.OTPVerifiedAt != nil {
		return nil, ErrAlreadyVerified
	}
	if code == "" || subtle.ConstantTimeCompare([]byte(d.OTPCode), []byte(code)) != 1 {
		return nil, ErrInvalidOtp
	}
	now := s.now()
	if now.Sub(d.OTPSentAt) > OTPValidity {
		return nil, ErrOtpExpired
	}

	n, err := s.confirmations.MarkOTPVerified(ctx, req.ID, code, now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		cur, err := s.confirmations.FindByRequest(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if cur.OTPVerifiedAt != nil {
			return nil, ErrAlreadyVerified
		}
		// code was reissued concurrently
		return nil, ErrInvalidOtp
	}

	if s.notifier != nil {
		msg := "The delivery code was verified. Both parties can now confirm delivery."
		s.notifier.Notify(ctx, req.BuyerUID, NotifyOTPVerified, "Delivery code verified", msg, req.ID, model.PriorityNormal)
		s.notifier.Notify(ctx, req.SellerUID, NotifyOTPVerified, "Delivery code verified", msg, req.ID, model.PriorityNormal)
	}
	return &OtpVerified{RequestID: req.ID, VerifiedAt: now}, nil
}

func (s *otpService) loadRequest(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error) {
	if requestID == "" {
		return nil, ErrNotFound
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !req.IsParty(actorUID) {
		return nil, ErrForbidden
	}
	return req, nil
}
