package verify

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"misicuan-admin/internal/aigen"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
)

// generateContent asks for texts for every Comment and Review mission, one at
// a time in feature order. A failure is recorded on that mission's request
// and never stops the run.
func (s *Service) generateContent(ctx context.Context, plan *Plan, missions []mission.Mission) []ContentResult {
	var results []ContentResult
	for _, m := range missions {
		if !m.ActionType.NeedsGeneratedContent() {
			continue
		}
		results = append(results, s.generateFor(ctx, plan, m))
	}
	return results
}

func (s *Service) generateFor(ctx context.Context, plan *Plan, m mission.Mission) ContentResult {
	qty := m.Quota
	if qty > s.maxAIQty {
		qty = s.maxAIQty
	}
	req := aigen.Request{
		MissionID: m.ID,
		Context:   mission.ContentContext(plan.Order, *plan.Package, m.Title),
		Tone:      mission.ToneFor(m.Platform),
		Quantity:  qty,
		Platform:  m.Platform,
	}
	out := ContentResult{MissionID: m.ID, Quantity: qty}

	record, err := s.store.InsertAIRequest(ctx, repo.AIRequest{
		MissionID: m.ID,
		Context:   req.Context,
		Tone:      req.Tone,
		Quantity:  req.Quantity,
		Platform:  string(req.Platform),
		Status:    repo.AIRequestPending,
	})
	if err != nil {
		s.logger.Warn("record ai request failed", "mission_id", m.ID, "error", err)
		s.metrics.Error("verify")
	} else {
		out.RequestID = record.ID
	}

	ctx, span := s.tracer.Start(ctx, "verify.GenerateContent", trace.WithAttributes(
		attribute.String("mission.id", m.ID),
		attribute.String("mission.platform", string(m.Platform)),
		attribute.Int("ai.quantity", qty),
	))
	callCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	start := time.Now()
	res, genErr := s.generator.GenerateComments(callCtx, req)
	elapsed := time.Since(start)
	cancel()

	status := repo.AIRequestCompleted
	switch {
	case errors.Is(genErr, aigen.ErrDisabled):
		status = repo.AIRequestDisabled
	case genErr != nil:
		status = repo.AIRequestFailed
	}
	s.observeAI(status, elapsed)

	if genErr != nil {
		span.RecordError(genErr)
		span.SetStatus(codes.Error, genErr.Error())
		span.End()
		out.Error = genErr.Error()
		s.logger.Warn("ai generation failed", "mission_id", m.ID, "platform", m.Platform, "quantity", qty, "error", genErr)
		if out.RequestID != "" {
			record := s.store.FailAIRequest
			if status == repo.AIRequestDisabled {
				record = s.store.SkipAIRequest
			}
			if err := record(ctx, out.RequestID, genErr.Error()); err != nil {
				s.logger.Warn("record ai failure failed", "mission_id", m.ID, "status", status, "error", err)
			}
		}
		return out
	}
	span.SetAttributes(attribute.Int("ai.generated", res.Count))
	span.End()

	out.Generated = res.Count
	s.logger.Info("ai content generated", "mission_id", m.ID, "platform", m.Platform, "count", res.Count)
	if out.RequestID != "" {
		if err := s.store.CompleteAIRequest(ctx, out.RequestID, res.Count); err != nil {
			s.logger.Warn("record ai completion failed", "mission_id", m.ID, "error", err)
		}
	}
	return out
}

func (s *Service) observeAI(status string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.AIGenerations.WithLabelValues(status).Inc()
	s.metrics.AIGenerationLatency.WithLabelValues(status).Observe(d.Seconds())
}
