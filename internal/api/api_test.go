package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/domain"
	"github.com/lingopal/lingopal/internal/health"
	"github.com/lingopal/lingopal/internal/infra/sqlite"
)

var testNow = time.Date(2025, 7, 7, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate ...func(*engagement.Config)) *httptest.Server {
	t.Helper()

	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := engagement.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	svc, err := engagement.New(context.Background(), db, domain.FixedClock{T: testNow}, zap.NewNop(), cfg)
	if err != nil {
		t.Fatalf("engagement.New: %v", err)
	}
	t.Cleanup(svc.Close)

	srv := NewServer(svc, zap.NewNop())
	srv.EnableMetrics()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

// ─── Basics ─────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, "GET", ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[map[string]string](t, body)["status"]; got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestHealthChecks(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc, err := engagement.New(context.Background(), db, domain.FixedClock{T: testNow}, zap.NewNop(), engagement.DefaultConfig())
	if err != nil {
		t.Fatalf("engagement.New: %v", err)
	}
	t.Cleanup(svc.Close)
	pet := func() domain.PetState { return svc.Snapshot().Pet }

	tests := []struct {
		name       string
		store      health.Pinger
		wantCode   int
		wantStatus string
	}{
		{"healthy", db, http.StatusOK, "ok"},
		{"store down", stubPinger{err: context.DeadlineExceeded}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := health.NewChecker(tt.store, t.TempDir(), pet, zap.NewNop())
			checker.RunOnce(context.Background())

			srv := NewServer(svc, zap.NewNop())
			srv.SetHealth(checker)
			ts := httptest.NewServer(srv.Handler())
			defer ts.Close()

			resp, body := do(t, "GET", ts.URL+"/health", "")
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status code = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			got := decode[struct {
				Status string          `json:"status"`
				Checks []health.Status `json:"checks"`
			}](t, body)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if len(got.Checks) != 3 {
				t.Errorf("checks = %d, want 3", len(got.Checks))
			}
		})
	}
}

func TestVersionAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	if resp, _ := do(t, "GET", ts.URL+"/api/version", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("/api/version status = %d", resp.StatusCode)
	}
	resp, body := do(t, "GET", ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "lingopal_level_current") {
		t.Error("/metrics should expose lingopal metrics")
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, "OPTIONS", ts.URL+"/api/progress", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

// ─── Read endpoints ─────────────────────────────────────────────────────────

func TestProgressAndPet(t *testing.T) {
	ts := newTestServer(t)

	_, body := do(t, "GET", ts.URL+"/api/progress", "")
	p := decode[progressResponse](t, body)
	if p.Level != 1 || p.XPToNextLevel != 100 {
		t.Errorf("fresh progress = %+v", p)
	}

	_, body = do(t, "GET", ts.URL+"/api/pet", "")
	pet := decode[petResponse](t, body)
	if pet.StageName != "Egg" || pet.Stage != 0 {
		t.Errorf("fresh pet = %+v", pet)
	}
	if pet.NextStage == nil || pet.NextStage.MinLevel != 3 {
		t.Errorf("next stage = %+v, want Hatchling at level 3", pet.NextStage)
	}
	if pet.Pending != nil {
		t.Error("no evolution should be pending")
	}
	if pet.CanEvolve || pet.Phase != "idle" {
		t.Errorf("can_evolve = %v, phase = %q; want false, idle", pet.CanEvolve, pet.Phase)
	}
}

func TestTracksAndNoticePolicy(t *testing.T) {
	ts := newTestServer(t)

	_, body := do(t, "GET", ts.URL+"/api/pet/tracks", "")
	tracks := decode[struct {
		Tracks []struct {
			ID     domain.TrackID `json:"id"`
			Stages []struct {
				Name string `json:"name"`
			} `json:"stages"`
		} `json:"tracks"`
	}](t, body).Tracks
	if len(tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(tracks))
	}
	for _, tr := range tracks {
		if len(tr.Stages) == 0 || tr.Stages[0].Name != "Egg" {
			t.Errorf("track %s should start at Egg: %+v", tr.ID, tr.Stages)
		}
	}

	_, body = do(t, "GET", ts.URL+"/api/notices/policy", "")
	policy := decode[engagement.NoticePolicy](t, body)
	if policy != engagement.DefaultNoticePolicy() {
		t.Errorf("policy = %+v, want defaults", policy)
	}
}

func TestAchievements_FilterAndErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, "GET", ts.URL+"/api/achievements?filter=bogus", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad filter status = %d, want 400", resp.StatusCode)
	}
	resp, _ = do(t, "GET", ts.URL+"/api/achievements?sort=sideways", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad sort status = %d, want 400", resp.StatusCode)
	}

	do(t, "POST", ts.URL+"/api/events/reading", `{"words_learned": 3}`)

	_, body := do(t, "GET", ts.URL+"/api/achievements?filter=unlocked&sort=alphabetical", "")
	out := decode[struct {
		Achievements []achievementView `json:"achievements"`
		Unlocked     int               `json:"unlocked"`
	}](t, body)
	if out.Unlocked == 0 || len(out.Achievements) != out.Unlocked {
		t.Fatalf("unlocked listing = %+v", out)
	}
	for _, a := range out.Achievements {
		if a.Percent != 100 {
			t.Errorf("%s percent = %d, want 100", a.ID, a.Percent)
		}
	}

	resp, _ = do(t, "GET", ts.URL+"/api/milestone", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("milestone status = %d", resp.StatusCode)
	}
}

func TestQuestsAndShop(t *testing.T) {
	ts := newTestServer(t)

	_, body := do(t, "GET", ts.URL+"/api/quests", "")
	quests := decode[map[string][]questView](t, body)["quests"]
	if len(quests) == 0 {
		t.Fatal("expected daily quests")
	}

	resp, _ := do(t, "POST", ts.URL+"/api/quests/"+quests[0].ID+"/claim", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("claim active quest status = %d, want 409", resp.StatusCode)
	}
	resp, _ = do(t, "POST", ts.URL+"/api/quests/nope/claim", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("claim unknown quest status = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, "POST", ts.URL+"/api/shop/hat/buy", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("buy without coins status = %d, want 422", resp.StatusCode)
	}
	resp, _ = do(t, "POST", ts.URL+"/api/shop/rocket/buy", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("buy unknown item status = %d, want 404", resp.StatusCode)
	}

	_, body = do(t, "GET", ts.URL+"/api/shop", "")
	if !strings.Contains(string(body), `"snack"`) {
		t.Errorf("shop listing missing snack: %s", body)
	}
}

// ─── Events ─────────────────────────────────────────────────────────────────

func TestReadingEvent(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, "POST", ts.URL+"/api/events/reading", `{"words_learned": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	res := decode[engagement.Result](t, body)
	if res.XP < 20+3*2 {
		t.Errorf("xp = %d, want at least the reading reward", res.XP)
	}
	if res.Streak == nil || res.Streak.Streak != 1 {
		t.Errorf("streak = %+v, want day 1", res.Streak)
	}

	_, body = do(t, "GET", ts.URL+"/api/progress", "")
	if p := decode[progressResponse](t, body); p.BooksRead != 1 || p.WordsLearned != 3 || !p.StreakAlive {
		t.Errorf("progress after reading = %+v", p)
	}
}

func TestReadingEvent_EmptyBody(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, "POST", ts.URL+"/api/events/reading", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("empty body status = %d, want 200", resp.StatusCode)
	}
}

func TestAnswerEvent(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, "POST", ts.URL+"/api/events/answer", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", resp.StatusCode)
	}

	do(t, "POST", ts.URL+"/api/events/answer", `{"correct": true}`)
	_, body := do(t, "POST", ts.URL+"/api/events/answer", `{"correct": true}`)
	if res := decode[engagement.Result](t, body); res.Combo != 2 || res.ComboBonus != 5 {
		t.Errorf("second answer = combo %d bonus %d, want 2 and 5", res.Combo, res.ComboBonus)
	}

	do(t, "POST", ts.URL+"/api/events/quiz/end", "")
	_, body = do(t, "GET", ts.URL+"/api/progress", "")
	if p := decode[progressResponse](t, body); p.Combo != 0 || p.BestCombo != 2 {
		t.Errorf("after quiz end combo = %d best = %d", p.Combo, p.BestCombo)
	}
}

func TestLoginEvent(t *testing.T) {
	ts := newTestServer(t)
	_, body := do(t, "POST", ts.URL+"/api/events/login", "")
	if res := decode[engagement.Result](t, body); res.Streak == nil {
		t.Error("first login of the day should pay the streak reward")
	}
	_, body = do(t, "GET", ts.URL+"/api/rewards/streak", "")
	if sr := decode[map[string]any](t, body); sr["streak"] != float64(1) {
		t.Errorf("streak preview = %v", sr)
	}
}

func TestEvolutionFlow(t *testing.T) {
	ts := newTestServer(t, func(c *engagement.Config) { c.ReadingXP = 1000 })

	resp, _ := do(t, "POST", ts.URL+"/api/pet/evolution/unknown/ack", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("ack without pending status = %d, want 409", resp.StatusCode)
	}

	_, body := do(t, "POST", ts.URL+"/api/events/reading", "{}")
	res := decode[engagement.Result](t, body)
	if res.Evolution == nil {
		t.Fatal("expected a pending evolution")
	}

	_, body = do(t, "GET", ts.URL+"/api/pet", "")
	if pet := decode[petResponse](t, body); pet.Pending == nil || pet.Stage != 0 {
		t.Errorf("pet before ack = %+v", pet)
	}

	resp, _ = do(t, "POST", ts.URL+"/api/pet/evolution/"+res.Evolution.ID+"/ack", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ack status = %d", resp.StatusCode)
	}

	_, body = do(t, "GET", ts.URL+"/api/pet", "")
	pet := decode[petResponse](t, body)
	if pet.Stage != 1 || pet.StageName != "Hatchling" || len(pet.History) != 1 {
		t.Errorf("pet after ack = %+v", pet)
	}

	_, body = do(t, "POST", ts.URL+"/api/pet/evolution/cancel", "")
	if decode[map[string]bool](t, body)["cancelled"] {
		t.Error("nothing should be left to cancel")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrQuestNotFound, http.StatusNotFound},
		{domain.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrNoPendingTransition, http.StatusConflict},
		{domain.ErrTransitionMismatch, http.StatusConflict},
		{domain.ErrQuestNotCompleted, http.StatusConflict},
		{domain.ErrQuestAlreadyClaimed, http.StatusConflict},
		{domain.ErrInsufficientCoins, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("handler: %w", tt.err)
		if got := statusFor(wrapped); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
