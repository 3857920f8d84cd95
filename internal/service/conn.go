package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL            string
	Subject        string
	Queue          string
	RequestTimeout time.Duration
	CredsFile      string
	Token          string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// DefaultNATSConfig returns the default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL, // "nats://127.0.0.1:4222"
		Subject:        "travelagent.ask",
		Queue:          "travelagent",
		RequestTimeout: 5 * time.Minute,
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
	}
}

// Connect establishes a connection to the NATS server. Connection state
// changes are logged.
func Connect(cfg NATSConfig, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultNATSConfig()
	if cfg.URL == "" {
		cfg.URL = defaults.URL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = defaults.ReconnectWait
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = defaults.MaxReconnects
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("connection lost, attempting to reconnect", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS server", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Debug("connection closed", "error", nc.LastError())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("nats error", "error", err)
		}),
	}
	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionFailed, err)
	}
	return conn, nil
}
