package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/monorkin/soleklart/internal/airquality"
)

type NATS struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATS(url string, logger *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("soleklart"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATS{conn: conn, logger: logger}, nil
}

func (p *NATS) Name() string {
	return "nats"
}

func (p *NATS) Publish(ctx context.Context, reading airquality.Reading) error {
	data, err := encode(reading, time.Now())
	if err != nil {
		return err
	}

	subject := Subject(reading.StationID)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}

	p.logger.Debug("published reading", "subject", subject)
	return nil
}

func (p *NATS) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
