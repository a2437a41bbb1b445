package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/questforge/questforge/internal/domain"
)

// run executes the root command with args against a fresh home directory
// and the in-memory store.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("QUESTFORGE_HOME", home)
	t.Setenv("QUESTFORGE_STORE_DRIVER", "memory")
	return home
}

func TestLevelCommand(t *testing.T) {
	out, err := run(t, "level", "150")
	if err != nil {
		t.Fatalf("level error: %v", err)
	}
	if !strings.Contains(out, "Intermediate") || !strings.Contains(out, "25%") {
		t.Errorf("output = %q", out)
	}

	out, _ = run(t, "level", "10000")
	if !strings.Contains(out, "Master") || !strings.Contains(out, "max level") {
		t.Errorf("max output = %q", out)
	}

	if _, err := run(t, "level", "many"); err == nil {
		t.Error("non-integer xp should fail")
	}
}

func TestScoreCommand(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(path, []byte(`[{"completed":true,"checkedItems":3}]`), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "score", "wellbeing-breathing", "--answers", path, "--elapsed", "9999")
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	if !strings.Contains(out, "1/1 correct") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "score", "no-such-quest", "--answers", path); err == nil {
		t.Error("unknown quest should fail")
	}
}

func TestLoginCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "login", "ada")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	var res domain.LoginResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.UserID != "ada" || res.Streak != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestChallengeCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "challenge", "ada", "--day", "2026-03-10")
	if err != nil {
		t.Fatalf("challenge error: %v", err)
	}
	var ch domain.DailyChallenge
	if err := json.Unmarshal([]byte(out), &ch); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if ch.Date.String() != "2026-03-10" || ch.QuestID == "" {
		t.Errorf("challenge = %+v", ch)
	}

	if _, err := run(t, "challenge", "ada", "--day", "someday"); err == nil {
		t.Error("malformed day should fail")
	}
}

func TestQuestsAndBadgesCommands(t *testing.T) {
	isolate(t)
	out, err := run(t, "quests", "--category", "leadership")
	if err != nil {
		t.Fatalf("quests error: %v", err)
	}
	if !strings.Contains(out, "leadership-delegation") || strings.Contains(out, "wellbeing-breathing") {
		t.Errorf("quests output = %q", out)
	}

	out, err = run(t, "badges")
	if err != nil {
		t.Fatalf("badges error: %v", err)
	}
	if !strings.HasPrefix(out, "ID") {
		t.Errorf("badges output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	home := isolate(t)
	if _, err := run(t, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
	if _, err := run(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
}
