package main

import (
	"testing"
	"time"

	"streamplot/internal/config"
	"streamplot/internal/fetch"
)

func resetFlags() {
	cfgPath = ""
	xColumn = ""
	epochColumn = ""
	refresh = 0
	watchPath = ""
	themeName = ""
	logFile = ""
	logLevel = ""
	verbose = false
}

func changedNone(string) bool { return false }

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestResolveSettingsDefaults(t *testing.T) {
	resetFlags()

	s := resolveSettings(config.DefaultConfig(), nil, changedNone)

	if len(s.fetch.Command) != 0 {
		t.Fatalf("expected stdin input, got command %v", s.fetch.Command)
	}
	if s.ui.Title != "stdin" {
		t.Errorf("expected stdin title, got %q", s.ui.Title)
	}
	if got := fetch.ModeFor(s.fetch.Refresh, s.fetch.Epoch); got != fetch.Stream {
		t.Errorf("expected stream mode, got %v", got)
	}
	if s.ui.History != 64 {
		t.Errorf("expected default history 64, got %d", s.ui.History)
	}
	if s.logLevel != "info" {
		t.Errorf("expected info level, got %q", s.logLevel)
	}
	if s.logFile != "" {
		t.Errorf("expected no log file, got %q", s.logFile)
	}
}

func TestResolveSettingsEpochSelectsBatch(t *testing.T) {
	resetFlags()
	defer resetFlags()
	epochColumn = "run"

	s := resolveSettings(config.DefaultConfig(), nil, changedSet("epoch-column"))

	if got := fetch.ModeFor(s.fetch.Refresh, s.fetch.Epoch); got != fetch.Batch {
		t.Fatalf("expected batch mode, got %v", got)
	}
	if !s.fetch.Epoch.Matches("run", 3) {
		t.Error("epoch selector should match the run column by title")
	}
}

func TestResolveSettingsRefreshSelectsSnapshot(t *testing.T) {
	resetFlags()
	defer resetFlags()
	refresh = 2 * time.Second

	s := resolveSettings(config.DefaultConfig(), nil, changedSet("refresh"))

	if got := fetch.ModeFor(s.fetch.Refresh, s.fetch.Epoch); got != fetch.Snapshot {
		t.Fatalf("expected snapshot mode, got %v", got)
	}
	if s.ui.Refresh != 2*time.Second {
		t.Errorf("expected the view to tick at 2s, got %v", s.ui.Refresh)
	}
}

func TestResolveSettingsCommandArgs(t *testing.T) {
	resetFlags()

	s := resolveSettings(config.DefaultConfig(), []string{"cat", "data.csv"}, changedNone)

	if len(s.fetch.Command) != 2 || s.fetch.Command[0] != "cat" {
		t.Fatalf("expected args to become the command, got %v", s.fetch.Command)
	}
	if s.ui.Title != "cat data.csv" {
		t.Errorf("expected the command as title, got %q", s.ui.Title)
	}
}

func TestResolveSettingsConfigFileApplies(t *testing.T) {
	resetFlags()

	cfg := config.DefaultConfig()
	cfg.Input.Command = "cat data.csv"
	cfg.Input.XColumn = "0"
	cfg.Input.Refresh = "5s"
	cfg.Input.Watch = "data.csv"
	cfg.UI.Theme = "light"
	cfg.Logging.Level = "warn"
	cfg.Logging.File = "/tmp/streamplot.log"

	s := resolveSettings(cfg, nil, changedNone)

	if len(s.fetch.Command) != 1 || s.fetch.Command[0] != "cat data.csv" {
		t.Errorf("expected the config command, got %v", s.fetch.Command)
	}
	if !s.fetch.X.Matches("anything", 0) {
		t.Error("expected x selector to bind column 0")
	}
	if s.fetch.Refresh != 5*time.Second {
		t.Errorf("expected 5s refresh from file, got %v", s.fetch.Refresh)
	}
	if s.watch != "data.csv" {
		t.Errorf("expected watch path from file, got %q", s.watch)
	}
	if s.ui.Theme.IsDark {
		t.Error("expected the light theme from file")
	}
	if s.logLevel != "warn" || s.logFile != "/tmp/streamplot.log" {
		t.Errorf("expected file logging settings, got %q %q", s.logLevel, s.logFile)
	}
}

func TestResolveSettingsFlagsWinOverFile(t *testing.T) {
	resetFlags()
	defer resetFlags()
	themeName = "dark"
	refresh = time.Second

	cfg := config.DefaultConfig()
	cfg.UI.Theme = "light"
	cfg.Input.Refresh = "5s"

	s := resolveSettings(cfg, nil, changedSet("theme", "refresh"))

	if !s.ui.Theme.IsDark {
		t.Error("expected the theme flag to win over the file")
	}
	if s.fetch.Refresh != time.Second {
		t.Errorf("expected the refresh flag to win, got %v", s.fetch.Refresh)
	}
}

func TestResolveSettingsVerboseForcesDebug(t *testing.T) {
	resetFlags()
	defer resetFlags()
	verbose = true

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	s := resolveSettings(cfg, nil, changedNone)

	if s.logLevel != "debug" {
		t.Errorf("expected -v to force debug, got %q", s.logLevel)
	}
}
