package infra

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientAppliesDefaults(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	opt := client.Options()
	if opt.ClientName != redisClientName {
		t.Fatalf("unexpected client name %q", opt.ClientName)
	}
	if opt.MinIdleConns != 2 {
		t.Fatalf("unexpected min idle conns %d", opt.MinIdleConns)
	}
}

func TestNewRedisClientRejectsBadInput(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := NewRedisClient(context.Background(), "http://nope"); err == nil {
		t.Fatalf("expected error for bad scheme")
	}
}
