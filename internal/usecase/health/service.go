package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

const auditService = "status"

var ErrServiceNotFound = errors.New("service not found")

// Health is one service's entry in the status report. Latency is in
// milliseconds.
type Health struct {
	OK      bool           `json:"ok"`
	Status  string         `json:"status"`
	Latency int64          `json:"latency"`
	Details map[string]any `json:"details"`
}

type Overall struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

type Report struct {
	Overall  Overall           `json:"overall"`
	Services map[string]Health `json:"services"`
}

// CheckFunc probes one dependency. It must honour ctx.
type CheckFunc func(ctx context.Context) (ok bool, status string, details map[string]any)

type Check struct {
	Name string
	Run  CheckFunc
}

type Service struct {
	checks  []Check
	audit   ports.AuditLog
	timeout time.Duration
}

func NewService(audit ports.AuditLog, checks ...Check) *Service {
	return &Service{checks: checks, audit: audit, timeout: 5 * time.Second}
}

// Report runs every check concurrently. The overall status is degraded as
// soon as one service is not ok.
func (s *Service) Report(ctx context.Context) (Report, error) {
	if ctx == nil {
		return Report{}, errors.New("context is required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.health")

	services := s.runAll(ctx, s.checks)
	overall := Overall{OK: true, Status: "ok"}
	for _, h := range services {
		if !h.OK {
			overall = Overall{OK: false, Status: "degraded"}
			break
		}
	}

	s.record(logCtx, "ok", nil)
	return Report{Overall: overall, Services: services}, nil
}

// Service runs the single named check.
func (s *Service) Service(ctx context.Context, name string) (Health, error) {
	if ctx == nil {
		return Health{}, errors.New("context is required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.health")

	for _, check := range s.checks {
		if check.Name == name {
			s.record(logCtx, "ok", map[string]any{"service": name})
			return s.runAll(ctx, []Check{check})[name], nil
		}
	}
	s.record(logCtx, "not_found", map[string]any{"service": name})
	return Health{}, errs.WithCode("service_not_found", ErrServiceNotFound)
}

// Names lists the registered checks in registration order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for _, check := range s.checks {
		names = append(names, check.Name)
	}
	return names
}

func (s *Service) runAll(ctx context.Context, checks []Check) map[string]Health {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	out := make(map[string]Health, len(checks))
	g, gctx := errgroup.WithContext(runCtx)
	for _, check := range checks {
		g.Go(func() error {
			start := time.Now()
			ok, status, details := check.Run(gctx)
			if details == nil {
				details = map[string]any{}
			}
			h := Health{OK: ok, Status: status, Latency: time.Since(start).Milliseconds(), Details: details}

			mu.Lock()
			out[check.Name] = h
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) record(ctx context.Context, status string, fields map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, auditService, "status", status, fields); err != nil {
		logging.Warn(ctx, "audit write failed", slog.Any("err", errs.Loggable(err)))
	}
}
