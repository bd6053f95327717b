package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/bookswap-backend/internal/db"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/receipt"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	buyerUID  = "buyer-1"
	sellerUID = "seller-1"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentNotification struct {
	UserID    string
	Type      string
	Message   string
	RelatedID string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID, typ, _, message, relatedID string, _ model.NotificationPriority) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: typ, Message: message, RelatedID: relatedID})
}

func (n *recordingNotifier) count(typ string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.Type == typ {
			c++
		}
	}
	return c
}

type recordingArchiver struct {
	mu       sync.Mutex
	receipts []receipt.Receipt
}

func (a *recordingArchiver) Archive(_ context.Context, r receipt.Receipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receipts = append(a.receipts, r)
	return nil
}

type failingMessenger struct{}

func (failingMessenger) Send(context.Context, *model.PurchaseRequest, string, string, string) error {
	return fmt.Errorf("messenger down")
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	archiver *recordingArchiver
	codes    []string

	books         repository.BookRepository
	confirmations repository.DeliveryConfirmationRepository
	walletRepo    repository.UserWalletRepository
	convRepo      repository.ConversationRepository

	requests RequestService
	otp      OTPService
	confirm  ConfirmationService
	payouts  PayoutCalculator
	wallets  WalletService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newFixture(t *testing.T, messenger ...DirectMessenger) *fixture {
	t.Helper()
	gdb := newTestDB(t)
	f := &fixture{
		db:       gdb,
		clock:    &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		archiver: &recordingArchiver{},
	}
	f.books = repository.NewBookRepository(gdb)
	f.confirmations = repository.NewDeliveryConfirmationRepository(gdb)
	f.walletRepo = repository.NewUserWalletRepository(gdb)
	f.convRepo = repository.NewConversationRepository(gdb)
	requestRepo := repository.NewPurchaseRequestRepository(gdb)

	var m DirectMessenger = NewDirectMessenger(f.convRepo)
	if len(messenger) > 0 {
		m = messenger[0]
	}
	opts := []Option{
		WithClock(f.clock.Now),
		WithOTPGenerator(func() (string, error) {
			code := fmt.Sprintf("%06d", 100000+len(f.codes)+1)
			f.codes = append(f.codes, code)
			return code, nil
		}),
	}
	f.requests = NewRequestService(requestRepo, f.books, m, f.notifier, 30*24*time.Hour, opts...)
	f.otp = NewOTPService(requestRepo, f.confirmations, m, f.notifier, opts...)
	f.payouts = NewPayoutService(repository.NewTransactor(gdb), f.confirmations, f.walletRepo, f.books, f.requests,
		f.notifier, f.archiver, PayoutPolicy{SellerBonus: 30, PlatformFee: 20}, opts...)
	f.confirm = NewConfirmationService(requestRepo, f.confirmations, f.payouts, f.notifier, opts...)
	f.wallets = NewWalletService(f.walletRepo)
	return f
}

func (f *fixture) lastCode() string {
	return f.codes[len(f.codes)-1]
}

func (f *fixture) seedBook(t *testing.T, price int64) *model.Book {
	t.Helper()
	b := &model.Book{ID: uuid.NewString(), SellerUID: sellerUID, Title: "The Go Programming Language", Author: "Donovan", Price: price, Available: true}
	require.NoError(t, f.books.Create(context.Background(), b))
	return b
}

func (f *fixture) pendingRequest(t *testing.T, offered int64) *model.PurchaseRequest {
	t.Helper()
	b := f.seedBook(t, 100)
	req, err := f.requests.Create(context.Background(), CreateRequestInput{
		BookID:       b.ID,
		BuyerUID:     buyerUID,
		SellerUID:    sellerUID,
		OfferedPrice: offered,
		TransferMode: model.TransferModeSelf,
		Message:      "Can we meet at the station?",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) acceptedRequest(t *testing.T, offered int64) *model.PurchaseRequest {
	t.Helper()
	req := f.pendingRequest(t, offered)
	req, err := f.requests.Accept(context.Background(), req.ID, sellerUID)
	require.NoError(t, err)
	return req
}

// verifiedRequest returns an accepted request whose delivery code was verified.
func (f *fixture) verifiedRequest(t *testing.T, offered int64) *model.PurchaseRequest {
	t.Helper()
	ctx := context.Background()
	req := f.acceptedRequest(t, offered)
	_, err := f.otp.Issue(ctx, req.ID, sellerUID)
	require.NoError(t, err)
	_, err = f.otp.Verify(ctx, req.ID, sellerUID, f.lastCode())
	require.NoError(t, err)
	return req
}

// deliveredRequest returns a request where both parties confirmed delivery.
func (f *fixture) deliveredRequest(t *testing.T, offered int64) *model.PurchaseRequest {
	t.Helper()
	ctx := context.Background()
	req := f.verifiedRequest(t, offered)
	_, err := f.confirm.ConfirmDelivery(ctx, req.ID, buyerUID, model.PartyBuyer)
	require.NoError(t, err)
	_, err = f.confirm.ConfirmDelivery(ctx, req.ID, sellerUID, model.PartySeller)
	require.NoError(t, err)
	return req
}
