//go:build e2e

package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/monorkin/soleklart/internal/airquality"
)

func startNATS(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "nats:2.10-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start nats container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	endpoint, err := c.PortEndpoint(ctx, "4222/tcp", "nats")
	if err != nil {
		t.Fatalf("nats endpoint: %v", err)
	}
	return endpoint
}

func TestNATSPublish(t *testing.T) {
	url := startNATS(t)

	sub, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("subscriber connect: %v", err)
	}
	defer sub.Close()

	messages := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe("airquality.readings.>", messages); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatal(err)
	}

	publisher, err := NewNATS(url, quietLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, airquality.Reading{StationID: "NO0057A", Value: 12}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Subject != "airquality.readings.NO0057A" {
			t.Errorf("subject = %q", msg.Subject)
		}
		var m Message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m.Value != 12 {
			t.Errorf("value = %v, want 12", m.Value)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
