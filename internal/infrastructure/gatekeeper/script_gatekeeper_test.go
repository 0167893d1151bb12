package gatekeeper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"obiwork/internal/domain/access"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "gatekeeper.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCheckAllowedDevMode(t *testing.T) {
	script := writeScript(t, `echo "{\"ok\":true,\"wallet\":\"$1\",\"allowed\":true,\"mode\":\"dev\",\"license\":{\"tier\":\"scout\"}}"`)
	g := NewScriptGatekeeper("sh", script, time.Second)

	decision, err := g.Check(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !decision.Allowed || decision.Mode != access.ModeDev || decision.Wallet != "abc123" {
		t.Fatalf("Check() = %+v", decision)
	}
	if decision.License["tier"] != "scout" {
		t.Fatalf("license = %v", decision.License)
	}
}

func TestCheckUnknownModeKeepsRaw(t *testing.T) {
	script := writeScript(t, `echo '{"ok":true,"allowed":false,"mode":"testnet"}'`)
	g := NewScriptGatekeeper("sh", script, time.Second)

	decision, err := g.Check(context.Background(), "w")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if decision.Allowed || decision.Mode != access.ModeUnknown || decision.RawMode != "testnet" {
		t.Fatalf("Check() = %+v", decision)
	}
}

func TestCheckFailureSurfacesScriptError(t *testing.T) {
	script := writeScript(t, `echo '{"ok":false,"error":"rpc unavailable"}'; exit 1`)
	g := NewScriptGatekeeper("sh", script, time.Second)

	_, err := g.Check(context.Background(), "w")
	if err == nil || err.Error() != "rpc unavailable" {
		t.Fatalf("Check() error = %v, want rpc unavailable", err)
	}
}

func TestCheckFailureFallsBackToStderr(t *testing.T) {
	script := writeScript(t, `echo "Traceback: boom" 1>&2; exit 2`)
	g := NewScriptGatekeeper("sh", script, time.Second)

	_, err := g.Check(context.Background(), "w")
	if err == nil || !strings.Contains(err.Error(), "Traceback: boom") {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)
	g := NewScriptGatekeeper("sh", script, 100*time.Millisecond)

	_, err := g.Check(context.Background(), "w")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Check() error = %v, want timeout", err)
	}
}

func TestCheckInvalidOutput(t *testing.T) {
	script := writeScript(t, `echo 'not json'`)
	g := NewScriptGatekeeper("sh", script, time.Second)

	if _, err := g.Check(context.Background(), "w"); err == nil {
		t.Fatal("Check() error = nil for invalid output")
	}
}

func TestCheckNotConfigured(t *testing.T) {
	g := NewScriptGatekeeper("", "", 0)
	if _, err := g.Check(context.Background(), "w"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Check() error = %v, want ErrNotConfigured", err)
	}
}
