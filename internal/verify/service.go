// Package verify turns a paid order into active missions: preview, operator
// confirmation, a guarded transactional insert, best-effort AI content and the
// final status change.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"misicuan-admin/internal/aigen"
	"misicuan-admin/internal/catalog"
	"misicuan-admin/internal/metrics"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
)

var (
	// ErrOrderNotPending rejects verification of an order that already left
	// pending. Re-verification never duplicates missions.
	ErrOrderNotPending = errors.New("order is not pending")
	// ErrVerificationInFlight is returned while another run holds the order.
	ErrVerificationInFlight = errors.New("verification already running for order")
	// ErrNoDrafts explains a manual-entry plan whose package has no actionable features.
	ErrNoDrafts = errors.New("package has no actionable features")
	// ErrUnresolvedPackage explains a manual-entry plan with no matching package.
	ErrUnresolvedPackage = errors.New("no package matches the order")
	// ErrPlanChanged is returned by ExpectDrafts when the plan moved under the operator.
	ErrPlanChanged = errors.New("plan changed since preview")
	// ErrOrderNotVerified is returned by Reset for an order that is not verified.
	ErrOrderNotVerified = errors.New("order is not verified")
	// ErrNoConfirmer guards against running without a confirmation gate.
	ErrNoConfirmer = errors.New("verification needs a confirmer")
)

// Outcome is how a verification run ended without error.
type Outcome string

const (
	OutcomeVerified    Outcome = "verified"
	OutcomeManualEntry Outcome = "manual_entry"
	OutcomeDeclined    Outcome = "declined"
)

// Store is the persistence the orchestrator needs. repo.Repository satisfies it.
type Store interface {
	GetOrder(ctx context.Context, id string) (*mission.Order, error)
	UpdateOrderStatus(ctx context.Context, id, from, to string) error
	InsertMissionsForOrder(ctx context.Context, orderID string, drafts []mission.MissionDraft) ([]mission.Mission, error)
	InsertAIRequest(ctx context.Context, req repo.AIRequest) (*repo.AIRequest, error)
	CompleteAIRequest(ctx context.Context, id string, generated int) error
	FailAIRequest(ctx context.Context, id, reason string) error
	SkipAIRequest(ctx context.Context, id, reason string) error
}

// Catalog resolves an order's package name. *catalog.Repository satisfies it.
type Catalog interface {
	Resolve(ctx context.Context, packageName string) (catalog.Match, bool, error)
}

// Options tune a Service. Zero values pick defaults.
type Options struct {
	Materializer  *mission.Materializer
	Locker        Locker
	Notifier      Notifier
	AITimeout     time.Duration
	MaxAIQuantity int
}

// Service orchestrates order verification.
type Service struct {
	store        Store
	catalog      Catalog
	generator    aigen.Generator
	materializer *mission.Materializer
	locker       Locker
	notifier     Notifier
	aiTimeout    time.Duration
	maxAIQty     int
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// New wires a Service. generator may be nil to skip AI content.
func New(store Store, cat Catalog, generator aigen.Generator, opts Options, logger *slog.Logger, m *metrics.Metrics) *Service {
	if generator == nil {
		generator = aigen.Disabled{}
	}
	if opts.Materializer == nil {
		opts.Materializer = mission.NewMaterializer(nil)
	}
	if opts.Locker == nil {
		opts.Locker = NewMemoryLocker()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 60 * time.Second
	}
	if opts.MaxAIQuantity <= 0 {
		opts.MaxAIQuantity = 500
	}
	return &Service{
		store:        store,
		catalog:      cat,
		generator:    generator,
		materializer: opts.Materializer,
		locker:       opts.Locker,
		notifier:     opts.Notifier,
		aiTimeout:    opts.AITimeout,
		maxAIQty:     opts.MaxAIQuantity,
		logger:       logger.With("component", "verify"),
		metrics:      m,
		tracer:       otel.Tracer("misicuan-admin/verify"),
	}
}

// Plan is the read-only preview of a verification.
type Plan struct {
	Order           mission.Order            `json:"order"`
	Package         *mission.Package         `json:"package,omitempty"`
	Strategy        string                   `json:"strategy,omitempty"`
	Materialization *mission.Materialization `json:"materialization,omitempty"`
	TotalReward     int64                    `json:"total_reward"`
	PriceAdvisory   *mission.PriceAdvisory   `json:"price_advisory,omitempty"`
	ManualEntry     *mission.ManualEntry     `json:"manual_entry,omitempty"`
	Reason          string                   `json:"reason,omitempty"`

	reason error
}

// Drafts returns the drafts to insert, or nil for a manual-entry plan.
func (p *Plan) Drafts() []mission.MissionDraft {
	if p == nil || p.Materialization == nil {
		return nil
	}
	return p.Materialization.Drafts
}

// NeedsManualEntry reports whether the order has to be handled by hand.
func (p *Plan) NeedsManualEntry() bool {
	return p.ManualEntry != nil
}

// Err returns why a plan routes to manual entry, or nil.
func (p *Plan) Err() error {
	return p.reason
}

// ContentResult is the AI outcome for one mission.
type ContentResult struct {
	MissionID string `json:"mission_id"`
	RequestID string `json:"request_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Generated int    `json:"generated"`
	Error     string `json:"error,omitempty"`
}

// Result is what a verification run produced.
type Result struct {
	Outcome  Outcome           `json:"outcome"`
	Plan     *Plan             `json:"plan"`
	Missions []mission.Mission `json:"missions,omitempty"`
	Content  []ContentResult   `json:"content,omitempty"`
}

// Plan previews the verification of orderID without mutating anything.
func (s *Service) Plan(ctx context.Context, orderID string) (*Plan, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.buildPlan(ctx, *order)
}

func (s *Service) buildPlan(ctx context.Context, order mission.Order) (*Plan, error) {
	order = mission.NormalizeOrder(order)
	plan := &Plan{Order: order}

	match, ok, err := s.catalog.Resolve(ctx, order.PackageName)
	if err != nil {
		return nil, fmt.Errorf("resolve package: %w", err)
	}
	if !ok {
		entry := mission.SuggestManualEntry(order)
		plan.ManualEntry = &entry
		plan.setReason(ErrUnresolvedPackage)
		return plan, nil
	}

	pkg := match.Package
	plan.Package = &pkg
	plan.Strategy = match.Strategy

	mat := s.materializer.Materialize(pkg, order)
	plan.Materialization = &mat
	plan.TotalReward = mission.TotalReward(mat.Drafts)
	plan.PriceAdvisory = mission.CheckPrice(pkg, order)

	if len(mat.Drafts) == 0 {
		entry := mission.SuggestManualEntry(order)
		plan.ManualEntry = &entry
		plan.setReason(ErrNoDrafts)
	}
	return plan, nil
}

func (p *Plan) setReason(err error) {
	p.reason = err
	p.Reason = err.Error()
}

// Verify runs the full transition for a pending order. Nothing is written
// before confirm approves the plan.
func (s *Service) Verify(ctx context.Context, orderID string, confirm Confirmer) (res *Result, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verify.Verify", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() {
		outcome := "error"
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.metrics.Error("verify")
		} else if res != nil {
			outcome = string(res.Outcome)
			span.SetAttributes(attribute.String("verify.outcome", outcome))
		}
		s.observe(outcome, time.Since(start))
		span.End()
	}()

	if confirm == nil {
		return nil, ErrNoConfirmer
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != mission.OrderPending {
		return nil, fmt.Errorf("verify order %s (status %s): %w", orderID, order.Status, ErrOrderNotPending)
	}

	plan, err := s.buildPlan(ctx, *order)
	if err != nil {
		return nil, err
	}
	if plan.NeedsManualEntry() {
		s.logger.Info("order needs manual entry", "order_id", orderID, "package_name", order.PackageName, "reason", plan.Reason)
		return &Result{Outcome: OutcomeManualEntry, Plan: plan}, nil
	}
	if adv := plan.PriceAdvisory; adv != nil {
		s.logger.Warn("package price differs from order total",
			"order_id", orderID, "package", plan.Package.Name,
			"package_price", adv.PackagePrice, "order_price", adv.OrderPrice, "ratio", adv.Ratio)
	}

	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("confirm plan: %w", err)
	}
	if !ok {
		s.logger.Info("verification declined", "order_id", orderID)
		return &Result{Outcome: OutcomeDeclined, Plan: plan}, nil
	}

	release, ok, err := s.locker.TryLock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("verify order %s: %w", orderID, ErrVerificationInFlight)
	}
	defer release()

	missions, err := s.insertMissions(ctx, orderID, plan.Drafts())
	if err != nil {
		return nil, err
	}
	res = &Result{Outcome: OutcomeVerified, Plan: plan, Missions: missions}

	// Missions are committed; the rest of the run must not be cut short by
	// the caller going away.
	ctx = context.WithoutCancel(ctx)
	res.Content = s.generateContent(ctx, plan, missions)

	if err := s.finalize(ctx, orderID); err != nil {
		return res, err
	}
	s.logger.Info("order verified", "order_id", orderID, "package", plan.Package.Name,
		"strategy", plan.Strategy, "missions", len(missions), "total_reward", plan.TotalReward)

	verified := plan.Order
	verified.Status = mission.OrderVerified
	if err := s.notifier.OrderVerified(ctx, verified, missions); err != nil {
		s.logger.Warn("notify order verified failed", "order_id", orderID, "error", err)
	}
	return res, nil
}

func (s *Service) insertMissions(ctx context.Context, orderID string, drafts []mission.MissionDraft) ([]mission.Mission, error) {
	ctx, span := s.tracer.Start(ctx, "verify.InsertMissions", trace.WithAttributes(attribute.Int("missions.count", len(drafts))))
	defer span.End()

	missions, err := s.store.InsertMissionsForOrder(ctx, orderID, drafts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repo.ErrStatusConflict) {
			return nil, fmt.Errorf("insert missions for order %s: %w", orderID, ErrOrderNotPending)
		}
		return nil, fmt.Errorf("insert missions for order %s: %w", orderID, err)
	}
	if s.metrics != nil {
		for _, m := range missions {
			s.metrics.MissionsCreated.WithLabelValues(string(m.ActionType)).Inc()
		}
	}
	return missions, nil
}

func (s *Service) finalize(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "verify.Finalize")
	defer span.End()

	if err := s.store.UpdateOrderStatus(ctx, orderID, mission.OrderPending, mission.OrderVerified); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repo.ErrStatusConflict) {
			err = ErrOrderNotPending
		}
		return fmt.Errorf("mark order %s verified: %w", orderID, err)
	}
	return nil
}

// Reject moves a pending order to rejected.
func (s *Service) Reject(ctx context.Context, orderID string) error {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if err := s.store.UpdateOrderStatus(ctx, orderID, mission.OrderPending, mission.OrderRejected); err != nil {
		if errors.Is(err, repo.ErrStatusConflict) {
			err = ErrOrderNotPending
		}
		return fmt.Errorf("reject order %s: %w", orderID, err)
	}
	s.logger.Info("order rejected", "order_id", orderID)

	rejected := mission.NormalizeOrder(*order)
	rejected.Status = mission.OrderRejected
	if err := s.notifier.OrderRejected(ctx, rejected); err != nil {
		s.logger.Warn("notify order rejected failed", "order_id", orderID, "error", err)
	}
	return nil
}

// Reset moves a verified order back to pending. Missions created earlier are
// kept, so a new Verify fails until they are retired.
func (s *Service) Reset(ctx context.Context, orderID string) error {
	if err := s.store.UpdateOrderStatus(ctx, orderID, mission.OrderVerified, mission.OrderPending); err != nil {
		if errors.Is(err, repo.ErrStatusConflict) {
			err = ErrOrderNotVerified
		}
		return fmt.Errorf("reset order %s: %w", orderID, err)
	}
	s.logger.Warn("order reset to pending", "order_id", orderID)
	return nil
}

func (s *Service) observe(outcome string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Verifications.WithLabelValues(outcome).Inc()
	s.metrics.VerificationLatency.WithLabelValues(outcome).Observe(d.Seconds())
}
