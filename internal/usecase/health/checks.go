package health

import "context"

// Service names in the status report.
const (
	NameGatekeeper = "gatekeeper"
	NamePayments   = "payments"
	NameDatabase   = "database"
	NameJournal    = "journal"
)

type Configurable interface {
	Configured() bool
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Prober interface {
	Probe(ctx context.Context) error
}

func GatekeeperCheck(gk Configurable) Check {
	return Check{Name: NameGatekeeper, Run: func(context.Context) (bool, string, map[string]any) {
		configured := gk != nil && gk.Configured()
		return configured, configuredStatus(configured), map[string]any{"scriptConfigured": configured}
	}}
}

// PaymentsCheck reports needs_config while the processor runs in mock mode.
func PaymentsCheck(live bool) Check {
	return Check{Name: NamePayments, Run: func(context.Context) (bool, string, map[string]any) {
		mode := "mock"
		if live {
			mode = "live"
		}
		return live, configuredStatus(live), map[string]any{"cieloConfigured": live, "mode": mode}
	}}
}

func DatabaseCheck(db Pinger) Check {
	return Check{Name: NameDatabase, Run: func(ctx context.Context) (bool, string, map[string]any) {
		if err := db.PingContext(ctx); err != nil {
			return false, "unavailable", map[string]any{"error": err.Error()}
		}
		return true, "ok", nil
	}}
}

func JournalCheck(j Prober) Check {
	return Check{Name: NameJournal, Run: func(ctx context.Context) (bool, string, map[string]any) {
		if err := j.Probe(ctx); err != nil {
			return false, "unwritable", map[string]any{"error": err.Error()}
		}
		return true, "ok", nil
	}}
}

func configuredStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "needs_config"
}
