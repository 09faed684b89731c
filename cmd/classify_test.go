package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/bedrockd/internal/api/models"
)

const sampleLog = `NO LOG FILE! - setting up server logging...
[2024-03-09 10:15:42:101 INFO] Starting Server
[2024-03-09 10:16:01:512 INFO] Player connected: Steve, xuid: 2535416413393422
[2024-03-09 10:16:05:007 INFO] Player Spawned: Steve xuid: 2535416413393422, pfid: 6b4d2c0bd1b5a2f1
[2024-03-09 10:20:33:990 INFO] Player disconnected: Steve, xuid: 2535416413393422, pfid: 6b4d2c0bd1b5a2f1
`

func runClassify(t *testing.T, stdin string, args ...string) []models.EventData {
	t.Helper()
	c := CreateClassifyCmd()
	var out bytes.Buffer
	c.SetIn(strings.NewReader(stdin))
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	if err := c.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var events []models.EventData
	dec := json.NewDecoder(&out)
	for dec.More() {
		var ev models.EventData
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func kinds(events []models.EventData) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestClassifyStdin(t *testing.T) {
	events := runClassify(t, sampleLog)

	want := []string{
		"log",
		"log", "player_connected",
		"log", "player_spawned",
		"log", "player_disconnected",
	}
	if got := kinds(events); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if events[2].Player == nil || events[2].Player.Username != "Steve" {
		t.Errorf("player = %+v, want Steve", events[2].Player)
	}
	if events[0].Message != "Starting Server" || events[0].Type != "INFO" {
		t.Errorf("first event = %+v", events[0])
	}
}

func TestClassifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	events := runClassify(t, "", "--players", path)
	want := "player_connected,player_spawned,player_disconnected"
	if got := strings.Join(kinds(events), ","); got != want {
		t.Errorf("kinds = %s, want %s", got, want)
	}
}

func TestClassifyLogsOnly(t *testing.T) {
	events := runClassify(t, sampleLog, "--logs")
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for _, ev := range events {
		if ev.Kind != "log" {
			t.Errorf("unexpected kind %q", ev.Kind)
		}
	}
}

func TestClassifyConflictingFilters(t *testing.T) {
	c := CreateClassifyCmd()
	c.SetIn(strings.NewReader(sampleLog))
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"--logs", "--players"})
	if err := c.Execute(); err == nil {
		t.Fatal("expected error for --logs with --players")
	}
}

func TestClassifyMissingFile(t *testing.T) {
	c := CreateClassifyCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{filepath.Join(t.TempDir(), "missing.log")})
	if err := c.Execute(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
