package wa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mau.fi/whatsmeow/types"

	"misicuan-admin/internal/mission"
)

// ErrInvalidNumber is returned for a WhatsApp number that cannot be addressed.
var ErrInvalidNumber = errors.New("invalid whatsapp number")

// Sender delivers a text message. *Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, to types.JID, text string) error
}

// OrderNotifier tells clients when their order is verified or rejected.
type OrderNotifier struct {
	sender Sender
	logger *slog.Logger
}

// NewOrderNotifier builds a notifier over sender.
func NewOrderNotifier(sender Sender, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{sender: sender, logger: logger.With("component", "wa_notifier")}
}

// OrderVerified sends the "order is running" message.
func (n *OrderNotifier) OrderVerified(ctx context.Context, order mission.Order, missions []mission.Mission) error {
	return n.send(ctx, order, VerifiedMessage(order, missions))
}

// OrderRejected sends the rejection message.
func (n *OrderNotifier) OrderRejected(ctx context.Context, order mission.Order) error {
	return n.send(ctx, order, RejectedMessage(order))
}

func (n *OrderNotifier) send(ctx context.Context, order mission.Order, text string) error {
	if strings.TrimSpace(order.ClientWhatsapp) == "" {
		n.logger.Debug("order has no whatsapp number", "order_id", order.ID)
		return nil
	}
	jid, err := ParseNumber(order.ClientWhatsapp)
	if err != nil {
		return err
	}
	if err := n.sender.SendText(ctx, jid, text); err != nil {
		return fmt.Errorf("notify order %s: %w", order.ID, err)
	}
	n.logger.Info("client notified", "order_id", order.ID, "status", order.Status)
	return nil
}

// ParseNumber turns a local or international phone number into a user JID.
// Indonesian local numbers ("0812...") get the 62 country code.
func ParseNumber(raw string) (types.JID, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	num := digits.String()
	switch {
	case strings.HasPrefix(num, "0"):
		num = "62" + strings.TrimLeft(num, "0")
	case strings.HasPrefix(num, "8"):
		num = "62" + num
	}
	if len(num) < 10 || len(num) > 15 {
		return types.JID{}, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return types.NewJID(num, types.DefaultUserServer), nil
}

// VerifiedMessage lists what was started for the client.
func VerifiedMessage(order mission.Order, missions []mission.Mission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo Kak %s! 👋\n\n", clientName(order))
	fmt.Fprintf(&b, "Pesanan *%s* sudah kami verifikasi dan sedang diproses.\n", order.PackageName)
	if len(missions) > 0 {
		b.WriteString("\nRincian:\n")
		for _, m := range missions {
			fmt.Fprintf(&b, "• %s %d\n", m.ActionLabel, m.Quota)
		}
	}
	if order.SocialLink != "" {
		fmt.Fprintf(&b, "\nTarget: %s\n", order.SocialLink)
	}
	b.WriteString("\nTerima kasih sudah order di Misi Cuan! 🚀")
	return b.String()
}

// RejectedMessage explains a rejected order.
func RejectedMessage(order mission.Order) string {
	return fmt.Sprintf("Halo Kak %s,\n\nMohon maaf, pesanan *%s* tidak dapat kami proses. "+
		"Silakan balas pesan ini untuk info lebih lanjut atau pengembalian dana.", clientName(order), order.PackageName)
}

func clientName(order mission.Order) string {
	if name := strings.TrimSpace(order.ClientName); name != "" {
		return name
	}
	return "Pelanggan"
}
