package daemon

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7878 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7878)
	}
	if cfg.Engine.PetTrack != string(domain.TrackKnowledge) {
		t.Errorf("Engine.PetTrack = %q, want knowledge", cfg.Engine.PetTrack)
	}
	if cfg.Engine.ReadingXP != 20 {
		t.Errorf("Engine.ReadingXP = %d, want 20", cfg.Engine.ReadingXP)
	}
}

func TestLoadConfig_FromHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINGOPAL_HOME", dir)

	// Missing file means defaults.
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 7878 {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}

	data := `
[api]
port = 9000

[engine]
pet_track = "creativity"
pet_name = "Doodle"
evolution_delay = "2s"

[telemetry]
prometheus = true
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9000 || !cfg.Telemetry.Prometheus {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Engine.ReadingXP != 20 {
		t.Errorf("unset keys should keep defaults, ReadingXP = %d", cfg.Engine.ReadingXP)
	}

	eng := cfg.Engagement()
	if eng.PetTrack != domain.TrackCreativity || eng.PetName != "Doodle" {
		t.Errorf("engagement pet = %s/%s", eng.PetTrack, eng.PetName)
	}
	if eng.EvolutionDelay != 2*time.Second {
		t.Errorf("EvolutionDelay = %v, want 2s", eng.EvolutionDelay)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINGOPAL_HOME", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api\nport ="), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail on malformed TOML")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("LINGOPAL_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Engine.PetName = "Mochi"
	cfg.Notices.MaxPerDay = 2
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Engine.PetName != "Mochi" || got.Notices.MaxPerDay != 2 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"3s", 3 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"", time.Minute},     // Fallback
		{"soon", time.Minute}, // Fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, time.Minute); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithConfig_Wiring(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Prometheus = true

	d, err := NewWithConfig(context.Background(), cfg, t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	rec := httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", rec.Code)
	}

	if d.Engagement.Snapshot().Pet.Track != domain.TrackKnowledge {
		t.Error("daemon should adopt a knowledge pet by default")
	}

	statuses := d.Health.RunOnce(context.Background())
	if len(statuses) != 4 || statuses[3].Name != "persistence" {
		t.Errorf("health checks = %+v, want sqlite, state_dir, pet, persistence", statuses)
	}
	for _, st := range statuses {
		if !st.Healthy {
			t.Errorf("health check %q failed: %s", st.Name, st.Error)
		}
	}
	rec = httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
}

func TestRunning(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := DefaultConfig()
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = port
	addr, ok := Running(cfg)
	if !ok {
		t.Fatalf("Running() = false with a listener on %s", addr)
	}
	if want := net.JoinHostPort("127.0.0.1", strconv.Itoa(port)); addr != want {
		t.Errorf("addr = %q, want %q", addr, want)
	}

	ln.Close()
	if _, ok := Running(cfg); ok {
		t.Error("Running() = true after the listener closed")
	}
}

func TestNewWithConfig_BadTrack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.PetTrack = "chaos"
	if _, err := NewWithConfig(context.Background(), cfg, t.TempDir(), zap.NewNop()); err == nil {
		t.Error("unknown pet track should fail startup")
	}
}
