package verify

import (
	"context"

	"misicuan-admin/internal/mission"
)

// Notifier tells the client about their order. Calls are best-effort.
type Notifier interface {
	OrderVerified(ctx context.Context, order mission.Order, missions []mission.Mission) error
	OrderRejected(ctx context.Context, order mission.Order) error
}

type nopNotifier struct{}

func (nopNotifier) OrderVerified(context.Context, mission.Order, []mission.Mission) error {
	return nil
}

func (nopNotifier) OrderRejected(context.Context, mission.Order) error { return nil }
