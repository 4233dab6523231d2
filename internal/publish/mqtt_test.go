package publish

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/monorkin/soleklart/internal/airquality"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMQTTPublishRequiresConnection(t *testing.T) {
	client := NewMQTT("tcp://127.0.0.1:1", "soleklart", quietLogger())
	defer client.Disconnect()

	if client.IsConnected() {
		t.Fatal("client should start disconnected")
	}
	if err := client.Publish(context.Background(), airquality.Reading{StationID: "NO0057A"}); err == nil {
		t.Error("expected error when publishing without a connection")
	}
}

func TestMQTTConnectAfterDisconnect(t *testing.T) {
	client := NewMQTT("tcp://127.0.0.1:1", "soleklart", quietLogger())
	client.Disconnect()
	client.Disconnect()

	if err := client.Connect(context.Background()); err == nil {
		t.Error("expected error connecting a stopped client")
	}
}
