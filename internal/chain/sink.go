// AngelaMos | 2026
// sink.go

package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Sink delivers one event to the chain registration pipeline.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogSink only records events. It stands in when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, ev Event) error {
	s.logger.InfoContext(ctx, "chain event",
		"id", ev.ID,
		"kind", ev.Kind,
		"auction_id", ev.AuctionID,
		"winner", ev.Winner,
		"amount", ev.Amount,
	)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}

type NATSConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
}

// NATSSink publishes events to a JetStream stream, one subject per event
// kind, with the event id as the dedupe key.
type NATSSink struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
}

func NewNATSSink(
	ctx context.Context,
	cfg NATSConfig,
	logger *slog.Logger,
) (*NATSSink, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("flagnft-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{prefix + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	return &NATSSink{nc: nc, js: js, prefix: prefix}, nil
}

func (s *NATSSink) Subject(kind Kind) string {
	return s.prefix + "." + string(kind)
}

func (s *NATSSink) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := s.js.Publish(ctx, s.Subject(ev.Kind), data,
		jetstream.WithMsgID(ev.ID),
	); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
