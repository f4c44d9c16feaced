package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "key", "value", 0).Err(); err != nil {
		t.Fatalf("set after connect: %v", err)
	}
}

func TestNewClientMalformedURL(t *testing.T) {
	if _, err := NewClient(context.Background(), "://nope"); err == nil {
		t.Fatalf("expected error for malformed URL")
	}
}

func TestNewClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewClient(context.Background(), "redis://"+addr); err == nil {
		t.Fatalf("expected ping failure against a closed server")
	}
}
