package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	ServerExecutable string        `toml:"server.executable" env:"SERVER_EXECUTABLE"`
	ServerArgs       []string      `toml:"server.args" env:"SERVER_ARGS"`
	ServerAutostart  bool          `toml:"server.autostart" env:"SERVER_AUTOSTART"`
	EventsReplay     int           `toml:"events.replay" env:"EVENTS_REPLAY"`
	DiscordTimeout   time.Duration `toml:"discord.timeout" env:"DISCORD_TIMEOUT"`
	Untagged         string
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
executable = "/opt/bedrock/bedrock_server"
args = ["--a", "--b"]
autostart = true

[events]
replay = 500

[discord]
timeout = "3s"
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.ServerExecutable != "/opt/bedrock/bedrock_server" {
		t.Errorf("ServerExecutable = %q", opts.ServerExecutable)
	}
	if !reflect.DeepEqual(opts.ServerArgs, []string{"--a", "--b"}) {
		t.Errorf("ServerArgs = %v", opts.ServerArgs)
	}
	if !opts.ServerAutostart {
		t.Error("ServerAutostart should be true")
	}
	if opts.EventsReplay != 500 {
		t.Errorf("EventsReplay = %d, want 500", opts.EventsReplay)
	}
	if opts.DiscordTimeout != 3*time.Second {
		t.Errorf("DiscordTimeout = %v, want 3s", opts.DiscordTimeout)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[server]\nautostart = true\n")

	opts := &testOptions{Config: path, EventsReplay: 300, ServerExecutable: "./bedrock_server"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.EventsReplay != 300 {
		t.Errorf("EventsReplay = %d, want default 300", opts.EventsReplay)
	}
	if opts.ServerExecutable != "./bedrock_server" {
		t.Errorf("ServerExecutable = %q, want default", opts.ServerExecutable)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, "[server]\nexecutable = \"/from/toml\"\n\n[events]\nreplay = 10\n")
	t.Setenv("BEDROCKD_SERVER_EXECUTABLE", "/from/env")
	t.Setenv("BEDROCKD_SERVER_ARGS", " --x , --y ")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.ServerExecutable != "/from/env" {
		t.Errorf("ServerExecutable = %q, want /from/env", opts.ServerExecutable)
	}
	if !reflect.DeepEqual(opts.ServerArgs, []string{"--x", "--y"}) {
		t.Errorf("ServerArgs = %v", opts.ServerArgs)
	}
	if opts.EventsReplay != 10 {
		t.Errorf("EventsReplay = %d, want 10 from TOML", opts.EventsReplay)
	}
}

func TestLoadConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("BEDROCKD_SERVER_EXECUTABLE", "/from/env")
	t.Setenv("BEDROCKD_EVENTS_REPLAY", "50")

	opts := &testOptions{}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.ServerExecutable, "server-executable", "", "")
	cmd.Flags().IntVar(&opts.EventsReplay, "events-replay", 300, "")
	if err := cmd.Flags().Parse([]string{"--server-executable", "/from/flag"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.ServerExecutable != "/from/flag" {
		t.Errorf("ServerExecutable = %q, want /from/flag", opts.ServerExecutable)
	}
	if opts.EventsReplay != 50 {
		t.Errorf("EventsReplay = %d, want 50 from env", opts.EventsReplay)
	}
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	t.Setenv("BEDROCKD_EVENTS_REPLAY", "lots")

	if err := LoadConfig(&testOptions{}, nil); err == nil {
		t.Fatal("expected error for non-numeric BEDROCKD_EVENTS_REPLAY")
	}
}

func TestLoadConfigTypeMismatch(t *testing.T) {
	path := writeConfig(t, "[events]\nreplay = \"many\"\n")

	if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
		t.Fatal("expected error for string in integer field")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[server\ninvalid toml syntax\n")

	if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Fatal("expected error for non-pointer")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"server": map[string]any{"executable": "/bin/server"},
		"flat":   "value",
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"server.executable", "/bin/server", true},
		{"flat", "value", true},
		{"server.missing", nil, false},
		{"flat.child", nil, false},
		{"missing.child", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := getNestedValue(data, tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("getNestedValue(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":             "port",
		"ServerExecutable": "server-executable",
		"LoggingLevel":     "logging-level",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"

[logging.modules]
process = "debug"
bedrock = "error"
`)

	cfg, err := LoadLoggingConfig(path)
	if err != nil {
		t.Fatalf("LoadLoggingConfig: %v", err)
	}

	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("got level=%q format=%q", cfg.Level, cfg.Format)
	}
	want := map[string]string{"process": "debug", "bedrock": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.toml"), writeConfig(t, "[server]\n")} {
		cfg, err := LoadLoggingConfig(path)
		if err != nil {
			t.Fatalf("LoadLoggingConfig(%q): %v", path, err)
		}
		if cfg.Level != "info" || cfg.Format != "text" || len(cfg.Modules) != 0 {
			t.Errorf("LoadLoggingConfig(%q) = %+v, want defaults", path, cfg)
		}
	}
}
