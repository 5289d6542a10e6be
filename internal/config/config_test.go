package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[network]
tick_rate = "20ms"
network_update_factor = 25

[game]
width = 3000
merge_timer = "10s"

[game.virus]
mass_from = 80
mass_to = 90
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.TickRate != 20*time.Millisecond {
		t.Fatalf("tick_rate = %v", cfg.Network.TickRate)
	}
	if cfg.Network.BroadcastInterval() != 40*time.Millisecond {
		t.Fatalf("broadcast interval = %v", cfg.Network.BroadcastInterval())
	}
	if cfg.Game.Width != 3000 || cfg.Game.Height != 5000 {
		t.Fatalf("world = %vx%v, want 3000x5000", cfg.Game.Width, cfg.Game.Height)
	}
	if cfg.Game.MergeTimer != 10*time.Second {
		t.Fatalf("merge_timer = %v", cfg.Game.MergeTimer)
	}
	if cfg.Game.Virus.MassFrom != 80 || cfg.Game.Virus.MassTo != 90 {
		t.Fatalf("virus range = %v..%v", cfg.Game.Virus.MassFrom, cfg.Game.Virus.MassTo)
	}
	if cfg.Game.MaxHeartbeatInterval != 5*time.Second {
		t.Fatalf("heartbeat default lost: %v", cfg.Game.MaxHeartbeatInterval)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatalf("start time not set")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "server.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game.LimitSplit != 16 || cfg.Network.NetworkUpdateFactor != 40 {
		t.Fatalf("unexpected shipped values: %+v", cfg.Game)
	}
	if want := defaults().Network.TickRate; cfg.Network.TickRate != want {
		t.Fatalf("shipped tick_rate = %v, defaults use %v", cfg.Network.TickRate, want)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := defaults()
	cfg.Game.FoodMass = 0
	cfg.Game.SlowBase = 1
	cfg.Game.NewPlayerInitialPos = "center"
	cfg.Network.BindAddress = ""
	cfg.Network.WSBindAddress = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("Validate accepted a broken config")
	}
	for _, want := range []string{"food_mass", "slow_base", "center", "no listener"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("missing file loaded")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "[game]\nlimit_split = 0\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "limit_split") {
		t.Fatalf("err = %v, want limit_split complaint", err)
	}
}
