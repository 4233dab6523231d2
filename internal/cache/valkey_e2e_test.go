//go:build e2e

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startValkey(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "valkey/valkey:8-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start valkey container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("valkey endpoint: %v", err)
	}
	return endpoint
}

func TestValkeyRoundTrip(t *testing.T) {
	addr := startValkey(t)

	c, err := NewValkey(addr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := c.Get(ctx, "aq:missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	if err := c.Set(ctx, "aq:key", []byte(`[{"eoi":"NO0083A"}]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "aq:key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"eoi":"NO0083A"}]` {
		t.Errorf("got %q", got)
	}
}
