package kdeconnect

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultCallTimeout bounds every remote call issued through a Conn.
const DefaultCallTimeout = 5 * time.Second

// ConnConfig configures Dial.
type ConnConfig struct {
	// Address is a D-Bus address. Empty means the session bus.
	Address string

	// Service is the destination bus name. Empty means Service.
	Service string

	// CallTimeout bounds each call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration

	Logger *slog.Logger
}

// Conn is a Caller backed by a private D-Bus connection.
type Conn struct {
	conn    *dbus.Conn
	service string
	timeout atomic.Int64
	logger  *slog.Logger
}

// Dial opens a private connection to the configured bus.
func Dial(cfg ConnConfig) (*Conn, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if cfg.Address == "" {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.Connect(cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to bus: %w", err)
	}
	return NewConn(conn, cfg), nil
}

// NewConn wraps an established connection.
func NewConn(conn *dbus.Conn, cfg ConnConfig) *Conn {
	c := &Conn{
		conn:    conn,
		service: cfg.Service,
		logger:  cfg.Logger,
	}
	if c.service == "" {
		c.service = Service
	}
	c.SetCallTimeout(DefaultCallTimeout)
	c.SetCallTimeout(cfg.CallTimeout)
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SetCallTimeout changes the per-call timeout for subsequent calls.
func (c *Conn) SetCallTimeout(d time.Duration) {
	if d > 0 {
		c.timeout.Store(int64(d))
	}
}

// Call implements Caller.
func (c *Conn) Call(ctx context.Context, path dbus.ObjectPath, method string, args []interface{}, reply interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.timeout.Load()))
	defer cancel()

	start := time.Now()
	call := c.conn.Object(c.service, path).CallWithContext(ctx, method, 0, args...)
	c.logger.Debug("dbus call", "path", path, "method", method, "duration", time.Since(start), "error", call.Err)
	if call.Err != nil {
		return call.Err
	}
	if reply == nil {
		return nil
	}
	return call.Store(reply)
}

// Property implements Caller.
func (c *Conn) Property(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := c.Call(ctx, path, propertiesGet, []interface{}{iface, name}, &v)
	return v, err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
