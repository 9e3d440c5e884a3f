// Package aigen produces the comment and review texts workers post for
// Comment and Review missions.
package aigen

import (
	"context"
	"errors"
	"strings"

	"misicuan-admin/internal/mission"
)

var (
	// ErrDisabled is returned when no AI provider is configured.
	ErrDisabled = errors.New("ai generation disabled")
	// ErrEmptyContext is returned when there is nothing to write about.
	ErrEmptyContext = errors.New("ai generation context is empty")
)

// Request asks for Quantity texts for one mission.
type Request struct {
	MissionID string           `json:"mission_id"`
	Context   string           `json:"context"`
	Tone      string           `json:"tone"`
	Quantity  int              `json:"quantity"`
	Platform  mission.Platform `json:"platform"`
}

// Result reports how many texts were stored for the mission.
type Result struct {
	Count int `json:"count"`
}

// Generator writes mission content. Implementations store what they generate.
type Generator interface {
	GenerateComments(ctx context.Context, req Request) (Result, error)
}

// TaskStore persists generated texts as mission tasks.
type TaskStore interface {
	InsertMissionTasks(ctx context.Context, missionID string, contents []string) (int, error)
}

// Disabled is the generator used when AI_PROVIDER=none.
type Disabled struct{}

// GenerateComments always fails with ErrDisabled.
func (Disabled) GenerateComments(context.Context, Request) (Result, error) {
	return Result{}, ErrDisabled
}

func validate(req Request) error {
	if strings.TrimSpace(req.Context) == "" {
		return ErrEmptyContext
	}
	if req.MissionID == "" {
		return errors.New("ai generation needs a mission id")
	}
	if req.Quantity <= 0 {
		return errors.New("ai generation quantity must be positive")
	}
	return nil
}

// isShop reports whether texts should read like buyer testimonials.
func isShop(p mission.Platform) bool {
	switch p {
	case mission.PlatformTikTokShop, mission.PlatformShopee, mission.PlatformGoogleMaps:
		return true
	}
	return false
}
