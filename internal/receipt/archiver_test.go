package receipt

import (
	"context"
	"testing"
)

func TestObjectPath(t *testing.T) {
	if got := ObjectPath("abc"); got != "receipts/abc.json" {
		t.Fatalf("got=%q", got)
	}
}

func TestNewGCSArchiverRequiresBucket(t *testing.T) {
	if _, err := NewGCSArchiver(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
}

func TestNopArchiver(t *testing.T) {
	if err := NewNopArchiver().Archive(context.Background(), Receipt{RequestID: "r"}); err != nil {
		t.Fatalf("nop archiver returned %v", err)
	}
}
