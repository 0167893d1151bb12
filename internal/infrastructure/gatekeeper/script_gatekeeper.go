package gatekeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/domain/access"
	"obiwork/internal/ports"
)

const defaultTimeout = 10 * time.Second

var ErrNotConfigured = errors.New("gatekeeper script is not configured")

// ScriptGatekeeper runs `<program> <script> <wallet>` and reads one JSON
// object from stdout: {ok, wallet, allowed, mode, license} on success or
// {ok:false, error} with a non-zero exit.
type ScriptGatekeeper struct {
	program string
	script  string
	timeout time.Duration
}

var _ ports.Gatekeeper = (*ScriptGatekeeper)(nil)

func NewScriptGatekeeper(program string, script string, timeout time.Duration) *ScriptGatekeeper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ScriptGatekeeper{
		program: strings.TrimSpace(program),
		script:  strings.TrimSpace(script),
		timeout: timeout,
	}
}

// Configured reports whether a program is set. The script may be empty when
// the program is itself the gatekeeper.
func (g *ScriptGatekeeper) Configured() bool {
	return g != nil && g.program != ""
}

func (g *ScriptGatekeeper) Check(ctx context.Context, walletAddress string) (access.Decision, error) {
	if !g.Configured() {
		return access.Decision{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return access.Decision{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	args := make([]string, 0, 2)
	if g.script != "" {
		args = append(args, g.script)
	}
	args = append(args, walletAddress)
	cmd := exec.CommandContext(runCtx, g.program, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if runErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return access.Decision{}, fmt.Errorf("gatekeeper timed out after %s", g.timeout)
	}

	raw := strings.TrimSpace(stdout.String())
	if runErr != nil {
		if msg := gjson.Get(raw, "error").String(); msg != "" {
			return access.Decision{}, errors.New(msg)
		}
		if line := firstLine(strings.TrimSpace(stderr.String())); line != "" {
			return access.Decision{}, fmt.Errorf("gatekeeper failed: %s", line)
		}
		return access.Decision{}, fmt.Errorf("gatekeeper failed: %w", runErr)
	}

	return parseDecision(ctx, walletAddress, raw)
}

func parseDecision(ctx context.Context, walletAddress string, raw string) (access.Decision, error) {
	if raw == "" {
		return access.Decision{}, errors.New("gatekeeper returned no output")
	}
	if !gjson.Valid(raw) {
		return access.Decision{}, fmt.Errorf("gatekeeper returned invalid JSON: %s", firstLine(raw))
	}

	result := gjson.Parse(raw)
	if ok := result.Get("ok"); ok.Exists() && !ok.Bool() {
		msg := result.Get("error").String()
		if msg == "" {
			msg = "gatekeeper_error"
		}
		return access.Decision{}, errors.New(msg)
	}

	decision := access.Decision{
		Wallet:  walletAddress,
		Allowed: result.Get("allowed").Bool(),
	}
	if wallet := result.Get("wallet").String(); wallet != "" {
		decision.Wallet = wallet
	}

	rawMode := result.Get("mode").String()
	mode, known := access.ParseMode(rawMode)
	decision.Mode = mode
	if !known {
		decision.RawMode = rawMode
		logging.Warn(
			logging.WithComponent(ctx, "infrastructure.gatekeeper"),
			"gatekeeper reported unknown mode",
			slog.String("mode", rawMode),
		)
	}

	if license := result.Get("license"); license.IsObject() {
		var fields map[string]any
		if err := json.Unmarshal([]byte(license.Raw), &fields); err == nil {
			decision.License = fields
		}
	}
	return decision, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
