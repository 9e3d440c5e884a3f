package wa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"

	"misicuan-admin/internal/logging"
	"misicuan-admin/internal/mission"
)

type sentMessage struct {
	to   types.JID
	text string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to types.JID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return nil
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"081234567890":      "6281234567890",
		"+62 812-3456-7890": "6281234567890",
		"81234567890":       "6281234567890",
		"6281234567890":     "6281234567890",
	}
	for raw, want := range cases {
		jid, err := ParseNumber(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, jid.User, raw)
		assert.Equal(t, types.DefaultUserServer, jid.Server, raw)
	}

	_, err := ParseNumber("12345")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestOrderNotifierVerified(t *testing.T) {
	sender := &fakeSender{}
	n := NewOrderNotifier(sender, logging.Discard())

	order := mission.Order{
		ID:             "o1",
		ClientName:     "Budi",
		ClientWhatsapp: "0812-3456-7890",
		PackageName:    "Sultan TT",
		SocialLink:     "https://tiktok.com/@budi",
	}
	missions := []mission.Mission{
		{MissionDraft: mission.MissionDraft{ActionLabel: "Followers", Quota: 500}},
		{MissionDraft: mission.MissionDraft{ActionLabel: "Likes", Quota: 1000}},
	}

	require.NoError(t, n.OrderVerified(context.Background(), order, missions))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "6281234567890", sender.sent[0].to.User)
	assert.Contains(t, sender.sent[0].text, "Halo Kak Budi")
	assert.Contains(t, sender.sent[0].text, "*Sultan TT*")
	assert.Contains(t, sender.sent[0].text, "• Followers 500")
	assert.Contains(t, sender.sent[0].text, "• Likes 1000")
	assert.Contains(t, sender.sent[0].text, "https://tiktok.com/@budi")
}

func TestOrderNotifierRejectedAndEdgeCases(t *testing.T) {
	sender := &fakeSender{}
	n := NewOrderNotifier(sender, logging.Discard())

	require.NoError(t, n.OrderRejected(context.Background(), mission.Order{ID: "o2", PackageName: "Hemat"}))
	assert.Empty(t, sender.sent, "orders without a number are skipped")

	require.NoError(t, n.OrderRejected(context.Background(), mission.Order{ID: "o3", ClientWhatsapp: "081234567890", PackageName: "Hemat"}))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "Halo Kak Pelanggan")
	assert.Contains(t, sender.sent[0].text, "tidak dapat kami proses")

	err := n.OrderRejected(context.Background(), mission.Order{ID: "o4", ClientWhatsapp: "123"})
	assert.ErrorIs(t, err, ErrInvalidNumber)

	sender.err = errors.New("not connected")
	err = n.OrderVerified(context.Background(), mission.Order{ID: "o5", ClientWhatsapp: "081234567890"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify order o5")
}
