package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Server.Addr != ":8080" || cfg.Server.WSPath != "/v1/move" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if !cfg.Turn.ConfirmBoostedRun || cfg.Turn.SplitPolicy != "LIGHTER_LEFT" || cfg.Data.SnapshotEveryRounds != 1 {
		t.Fatalf("turn/data=%+v %+v", cfg.Turn, cfg.Data)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	raw := `
logLevel: debug
server:
  addr: ":9090"
  players: [red, blue]
turn:
  confirmHazard: false
  advancedMovement: true
`
	if err := os.WriteFile(filepath.Join(dir, "hexmove.yaml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Server.Addr != ":9090" || len(cfg.Server.Players) != 2 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Turn.ConfirmHazard || !cfg.Turn.AdvancedMovement || !cfg.Turn.ConfirmHighG {
		t.Fatalf("turn=%+v", cfg.Turn)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEXMOVE_SERVER_ADDR", ":7000")
	t.Setenv("HEXMOVE_BOT_PLAYER", "blue")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Bot.Player != "blue" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":    "server: [",
		"bad policy":   "turn:\n  splitPolicy: HEAVIER\n",
		"bad ws path":  "server:\n  wsPath: move\n",
		"neg snapshot": "data:\n  snapshotEveryRounds: -2\n",
	}
	for name, raw := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "hexmove.yaml"), []byte(raw), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(dir); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
