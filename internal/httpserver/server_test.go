package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/catalog"
	"misicuan-admin/internal/logging"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
	"misicuan-admin/internal/settlement"
	"misicuan-admin/internal/verify"
	"misicuan-admin/migrations"
)

type testEnv struct {
	db      *repo.SQLiteRepository
	handler http.Handler
}

func newTestEnv(t *testing.T, basePath string) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := repo.NewSQLite(ctx, filepath.Join(t.TempDir(), "http.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.RunMigrations(ctx, migrations.Files))

	_, err = db.UpsertPackage(ctx, mission.Package{
		Name: "TikTok - Sultan TT", Category: "TikTok", Price: 200000,
		Features: []string{"500 Followers @400", "Bonus Share @200", "Rating Bintang 5"},
	})
	require.NoError(t, err)
	_, err = db.UpsertPackage(ctx, mission.Package{
		Name: "Starter IG", Category: "Instagram", Price: 50000, Features: []string{"100 Likes"},
	})
	require.NoError(t, err)

	logger := logging.Discard()
	cat := catalog.New(db, nil, time.Minute, logger, nil)
	deps := Dependencies{
		Repository: db,
		Catalog:    cat,
		Verifier:   verify.New(db, cat, nil, verify.Options{}, logger, nil),
		Settlement: settlement.New(db, logger, nil),
	}
	srv := New(":0", logger, nil, deps, basePath)
	return &testEnv{db: db, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) order(t *testing.T, packageName string) *mission.Order {
	t.Helper()
	o, err := e.db.InsertOrder(context.Background(), mission.Order{
		ClientName: "Budi", PackageName: packageName, SocialLink: "https://tiktok.com/@budi", TotalPrice: 200200,
	})
	require.NoError(t, err)
	return o
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestBasePath(t *testing.T) {
	env := newTestEnv(t, "/admin/")
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/admin/healthz", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/adminx/healthz", nil).Code)
}

func TestPackages(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/packages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, all.Count)

	rec = env.do(t, http.MethodGet, "/api/packages?q=instagram", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[struct {
		Packages []mission.Package `json:"packages"`
	}](t, rec)
	require.NotEmpty(t, found.Packages)
	assert.Equal(t, "Starter IG", found.Packages[0].Name)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodGet, "/api/packages?limit=x", nil).Code)

	rec = env.do(t, http.MethodPost, "/api/packages/refresh", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseFeatures(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/features/parse", map[string]any{
		"features": []string{"1.5k Followers @400", "10 Komentar", "High Safety"},
		"text":     "TikTok Shop Sultan",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[struct {
		Tokens []struct {
			Quantity      int    `json:"quantity"`
			IsActionable  bool   `json:"is_actionable"`
			ActionType    string `json:"action_type"`
			RewardPerUnit int64  `json:"reward_per_unit"`
		} `json:"tokens"`
		Checklist string `json:"checklist"`
		Platform  string `json:"platform"`
	}](t, rec)
	require.Len(t, out.Tokens, 3)
	assert.Equal(t, 1500, out.Tokens[0].Quantity)
	assert.Equal(t, "Follow", out.Tokens[0].ActionType)
	assert.Equal(t, int64(400), out.Tokens[0].RewardPerUnit)
	assert.Equal(t, "Comment", out.Tokens[1].ActionType)
	assert.Equal(t, int64(750), out.Tokens[1].RewardPerUnit)
	assert.False(t, out.Tokens[2].IsActionable)
	assert.Equal(t, "✅ High Safety", out.Checklist)
	assert.Equal(t, "TikTok Shop", out.Platform)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/features/parse", map[string]any{}).Code)
}

func TestVerifyFlow(t *testing.T) {
	env := newTestEnv(t, "")
	o := env.order(t, "TikTok - Sultan TT - Sultan TT")

	rec := env.do(t, http.MethodGet, "/api/orders/"+o.ID+"/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[struct {
		Strategy        string `json:"strategy"`
		Materialization struct {
			Drafts []mission.MissionDraft `json:"drafts"`
		} `json:"materialization"`
	}](t, rec)
	assert.Equal(t, "containment", plan.Strategy)
	require.Len(t, plan.Materialization.Drafts, 2)

	rec = env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]int{"confirm_drafts": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]int{"confirm_drafts": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[verify.Result](t, rec)
	assert.Equal(t, verify.OutcomeVerified, res.Outcome)
	assert.Len(t, res.Missions, 2)

	rec = env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]int{"confirm_drafts": 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/orders?status=verified", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, orders.Count)
}

func TestVerifyManualEntry(t *testing.T) {
	env := newTestEnv(t, "")
	o := env.order(t, "Paket Custom")

	rec := env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]int{"confirm_drafts": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[verify.Result](t, rec)
	assert.Equal(t, verify.OutcomeManualEntry, res.Outcome)
	require.NotNil(t, res.Plan.ManualEntry)
}

func TestUnknownOrder(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodGet, "/api/orders/00000000-0000-0000-0000-000000000000/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectAndResetOrder(t *testing.T) {
	env := newTestEnv(t, "")
	o := env.order(t, "Starter IG")

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/reject", nil).Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/reject", nil).Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/reset", nil).Code)

	got, err := env.db.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, mission.OrderRejected, got.Status)

	verified := env.order(t, "Starter IG")
	rec := env.do(t, http.MethodPost, "/api/orders/"+verified.ID+"/verify", map[string]int{"confirm_drafts": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/orders/"+verified.ID+"/reset", nil).Code)

	got, err = env.db.GetOrder(context.Background(), verified.ID)
	require.NoError(t, err)
	assert.Equal(t, mission.OrderPending, got.Status)
}

func TestMissionsAndSubmissions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	o := env.order(t, "Starter IG")
	rec := env.do(t, http.MethodPost, "/api/orders/"+o.ID+"/verify", map[string]int{"confirm_drafts": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	likes := decode[verify.Result](t, rec).Missions[0]

	sub, err := env.db.InsertSubmission(ctx, repo.Submission{MissionID: likes.ID, UserID: "42", ProofURL: "https://img/1"})
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/submissions/"+sub.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approval := decode[repo.Approval](t, rec)
	assert.Equal(t, likes.RewardPerUnit, approval.Balance)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/submissions/"+sub.ID+"/approve", nil).Code)

	rec = env.do(t, http.MethodGet, "/api/missions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[struct {
		Missions []mission.Mission `json:"missions"`
	}](t, rec)
	require.Len(t, active.Missions, 1)
	assert.Equal(t, 1, active.Missions[0].TakenCount)

	rec = env.do(t, http.MethodDelete, "/api/missions/"+likes.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+likes.ID+`","result":"archived"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/submissions/00000000-0000-0000-0000-000000000000/reject", nil).Code)
}
