// Package receipt archives finalized payout receipts.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type Receipt struct {
	RequestID     string    `json:"requestId"`
	BookID        string    `json:"bookId"`
	BuyerID       string    `json:"buyerId"`
	SellerID      string    `json:"sellerId"`
	OfferedPrice  int64     `json:"offeredPrice"`
	SellerBonus   int64     `json:"sellerBonus"`
	SellerPayout  int64     `json:"sellerPayout"`
	PlatformFee   int64     `json:"platformFee"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	ProcessedAt   time.Time `json:"processedAt"`
}

type Archiver interface {
	Archive(ctx context.Context, r Receipt) error
}

type nopArchiver struct{}

func NewNopArchiver() Archiver { return nopArchiver{} }

func (nopArchiver) Archive(context.Context, Receipt) error { return nil }

// ObjectPath is the bucket path a receipt is stored under.
func ObjectPath(requestID string) string {
	return fmt.Sprintf("receipts/%s.json", requestID)
}

type GCSArchiver struct {
	client *storage.Client
	bucket string
}

// NewGCSArchiver opens a storage client; opts are passed through (for example
// option.WithCredentialsFile in local runs).
func NewGCSArchiver(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("receipt bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

func (a *GCSArchiver) Archive(ctx context.Context, r Receipt) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	obj := a.client.Bucket(a.bucket).Object(ObjectPath(r.RequestID))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": uuid.NewString(),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
