package redis

import (
	"testing"
	"time"

	"github.com/RobLun72/HouseProject-sub002/pkg/config"
)

func TestBuildKeyNamespacesAndSkipsEmptyParts(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("evt:processed:house-replica", "abc"); got != "hs:idempotency:evt:processed:house-replica:abc" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := c.buildKey("a", "", "b"); got != "hs:a:b" {
		t.Fatalf("expected empty parts skipped, got %q", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	if err == nil {
		t.Fatal("expected error when neither url nor address set")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		PoolSize:    15,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 {
		t.Fatalf("expected db from url, got %d", opts.DB)
	}
	if opts.PoolSize != 15 {
		t.Fatalf("expected pool size fallback, got %d", opts.PoolSize)
	}
	if opts.DialTimeout != 3*time.Second {
		t.Fatalf("expected dial timeout fallback, got %v", opts.DialTimeout)
	}
}
