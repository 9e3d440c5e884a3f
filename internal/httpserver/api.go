package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"misicuan-admin/internal/catalog"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
	"misicuan-admin/internal/settlement"
	"misicuan-admin/internal/verify"
)

// errInvalidInput marks request validation failures.
var errInvalidInput = errors.New("invalid input")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", errInvalidInput, msg)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.metrics.Error("http")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, catalog.ErrPackageNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrStatusConflict),
		errors.Is(err, repo.ErrDuplicateMissions),
		errors.Is(err, verify.ErrOrderNotPending),
		errors.Is(err, verify.ErrOrderNotVerified),
		errors.Is(err, verify.ErrVerificationInFlight),
		errors.Is(err, verify.ErrPlanChanged),
		errors.Is(err, settlement.ErrSubmissionNotPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("request body is empty")
		}
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalid("limit must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var pkgs []mission.Package
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		pkgs, err = s.deps.Catalog.Search(r.Context(), q, limit)
	} else {
		pkgs, err = s.deps.Catalog.List(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": pkgs, "count": len(pkgs)})
}

func (s *Server) handleRefreshPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.deps.Catalog.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(pkgs)})
}

type parseRequest struct {
	Features []string `json:"features"`
	// Text is searched for the platform, usually "<category> <name>".
	Text string `json:"text,omitempty"`
}

type parsedFeature struct {
	mission.FeatureToken
	ActionType    mission.ActionType `json:"action_type,omitempty"`
	RewardPerUnit int64              `json:"reward_per_unit,omitempty"`
}

func (s *Server) handleParseFeatures(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Features) == 0 {
		s.writeError(w, r, invalid("features is required"))
		return
	}

	tokens := mission.ParseFeatures(req.Features)
	out := make([]parsedFeature, len(tokens))
	var bundled []string
	for i, tok := range tokens {
		out[i] = parsedFeature{FeatureToken: tok}
		if !tok.IsActionable {
			bundled = append(bundled, tok.ActionLabel)
			continue
		}
		action, reward := s.deps.Classifier.Classify(tok.ActionLabel)
		if tok.UnitPrice != nil {
			reward = *tok.UnitPrice
		}
		out[i].ActionType = action
		out[i].RewardPerUnit = reward
	}
	resp := map[string]any{
		"tokens":    out,
		"checklist": mission.Checklist(bundled),
	}
	if strings.TrimSpace(req.Text) != "" {
		resp["platform"] = mission.DetectPlatform(req.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orders, err := s.deps.Repository.ListOrders(r.Context(), repo.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}

func (s *Server) handlePlanOrder(w http.ResponseWriter, r *http.Request) {
	plan, err := s.deps.Verifier.Plan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type verifyRequest struct {
	// ConfirmDrafts echoes the draft count the operator saw in the plan.
	ConfirmDrafts *int `json:"confirm_drafts"`
}

func (s *Server) handleVerifyOrder(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ConfirmDrafts == nil {
		s.writeError(w, r, invalid("confirm_drafts is required"))
		return
	}

	res, err := s.deps.Verifier.Verify(r.Context(), chi.URLParam(r, "id"), verify.ExpectDrafts(*req.ConfirmDrafts))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Outcome == verify.OutcomeVerified {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) handleRejectOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Verifier.Reject(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": mission.OrderRejected})
}

func (s *Server) handleResetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Verifier.Reset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": mission.OrderPending})
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	var missions []mission.Mission
	if q.Get("status") == "" && q.Get("order_id") == "" {
		missions, err = s.deps.Settlement.ListActiveMissions(r.Context(), limit)
	} else {
		missions, err = s.deps.Repository.ListMissions(r.Context(), repo.MissionFilter{
			Status:  q.Get("status"),
			OrderID: q.Get("order_id"),
			Limit:   limit,
		})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"missions": missions, "count": len(missions)})
}

func (s *Server) handleRetireMission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	how, err := s.deps.Settlement.RetireMission(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "result": string(how)})
}

func (s *Server) handleApproveSubmission(w http.ResponseWriter, r *http.Request) {
	approval, err := s.deps.Settlement.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approval)
}

func (s *Server) handleRejectSubmission(w http.ResponseWriter, r *http.Request) {
	rejection, err := s.deps.Settlement.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rejection)
}
