package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestTTLExpiry_GetMissesExpired(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr(), WithPoolSize(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	if err := rc.Set(ctx, "ttl-key", []byte("v"), 2*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := rc.Get(ctx, "ttl-key")
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("pre expiry got=%q err=%v", got, err)
	}

	mr.FastForward(3 * time.Second)

	got2, found, err := rc.Get(ctx, "ttl-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected ttl-key to be absent after expiry; got=%q", got2)
	}
}
