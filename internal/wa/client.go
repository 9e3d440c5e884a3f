package wa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"misicuan-admin/internal/metrics"
)

// ErrNotConnected is returned when sending before the session is up.
var ErrNotConnected = errors.New("whatsapp not connected")

// Config holds configuration to initialise the WhatsApp client.
type Config struct {
	StorePath string
	LogLevel  string
	Metrics   *metrics.Metrics
}

// Client is an outbound-only WhatsApp session used to message order owners.
type Client struct {
	wm        *whatsmeow.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics
	connected atomic.Bool
}

// New opens the device store at cfg.StorePath and prepares a session. It does
// not connect; call Start.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StorePath == "" {
		return nil, errors.New("whatsapp store path is required")
	}
	if dir := filepath.Dir(cfg.StorePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store dir: %w", err)
		}
	}

	container, err := sqlstore.New(ctx, "sqlite", storeDSN(cfg.StorePath), waLog.Stdout("wa/store", cfg.LogLevel, true))
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	c := &Client{
		wm:      whatsmeow.NewClient(device, waLog.Stdout("wa/client", cfg.LogLevel, true)),
		logger:  logger.With("component", "wa"),
		metrics: cfg.Metrics,
	}
	c.wm.AddEventHandler(c.handleEvent)
	return c, nil
}

func storeDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout=10000&_pragma=foreign_keys(ON)", path)
}

// Start connects the session. An unpaired device logs QR codes until the
// operator scans one or ctx ends.
func (c *Client) Start(ctx context.Context) error {
	if c.wm.Store.ID != nil {
		if err := c.wm.Connect(); err != nil {
			return fmt.Errorf("connect whatsapp: %w", err)
		}
		return nil
	}

	qr, err := c.wm.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := c.wm.Connect(); err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}
	c.logger.Info("device not paired, scan the QR code from WhatsApp > Linked devices")
	go func() {
		for evt := range qr {
			switch evt.Event {
			case "code":
				c.logger.Info("pairing code", "qr", evt.Code)
			default:
				c.logger.Info("pairing finished", "event", evt.Event)
			}
		}
	}()
	return nil
}

// Connected reports whether the session is logged in and online.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Close disconnects the session.
func (c *Client) Close() {
	if c.wm != nil {
		c.wm.Disconnect()
	}
}

func (c *Client) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		c.connected.Store(true)
		c.logger.Info("whatsapp connected")
	case *events.Disconnected:
		c.connected.Store(false)
		c.logger.Warn("whatsapp disconnected")
	case *events.LoggedOut:
		c.connected.Store(false)
		c.logger.Warn("whatsapp logged out", "reason", v.Reason.String())
	case *events.Message:
		c.logger.Debug("ignoring inbound message", "from", v.Info.Sender.String())
	}
}

// SendText delivers a plain conversation message to jid.
func (c *Client) SendText(ctx context.Context, jid types.JID, text string) error {
	if !c.wm.IsConnected() {
		c.countSend("error")
		return fmt.Errorf("send text to %s: %w", jid.User, ErrNotConnected)
	}
	msg := &waProto.Message{Conversation: proto.String(text)}
	if _, err := c.wm.SendMessage(ctx, jid, msg); err != nil {
		c.countSend("error")
		return fmt.Errorf("send text to %s: %w", jid.User, err)
	}
	c.countSend("ok")
	return nil
}

func (c *Client) countSend(status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.NotificationsSent.WithLabelValues("text", status).Inc()
}
