package access

import (
	"context"
	"errors"
	"testing"

	domainaccess "obiwork/internal/domain/access"
	"obiwork/internal/errs"
	"obiwork/internal/ports"
)

type stubGatekeeper struct {
	decision domainaccess.Decision
	err      error
}

func (g stubGatekeeper) Check(_ context.Context, wallet string) (domainaccess.Decision, error) {
	d := g.decision
	d.Wallet = wallet
	return d, g.err
}

type stubLicenses struct {
	license ports.LicenseRecord
	found   bool
	err     error
}

func (l stubLicenses) LatestLicense(context.Context, string) (ports.LicenseRecord, bool, error) {
	return l.license, l.found, l.err
}

type auditRecord struct {
	status string
	fields map[string]any
}

type memoryAudit struct{ records []auditRecord }

func (a *memoryAudit) Record(_ context.Context, service, event, status string, fields map[string]any) error {
	if service != "access" || event != "access_check" {
		return errors.New("unexpected audit envelope")
	}
	a.records = append(a.records, auditRecord{status: status, fields: fields})
	return nil
}

func TestCheckCombinesGatekeeperAndLicense(t *testing.T) {
	cases := []struct {
		name     string
		allowed  bool
		licenses stubLicenses
		want     bool
		licensed bool
	}{
		{"gatekeeper allows", true, stubLicenses{}, true, false},
		{"active license", false, stubLicenses{found: true, license: ports.LicenseRecord{Status: "active"}}, true, true},
		{"revoked license", false, stubLicenses{found: true, license: ports.LicenseRecord{Status: "revoked"}}, false, false},
		{"lookup error", false, stubLicenses{err: errors.New("db down")}, false, false},
	}
	for _, tc := range cases {
		audit := &memoryAudit{}
		gk := stubGatekeeper{decision: domainaccess.Decision{Allowed: tc.allowed, Mode: domainaccess.ModeOnchain}}
		svc := NewService(gk, tc.licenses, audit)

		result, err := svc.Check(context.Background(), " w1 ")
		if err != nil {
			t.Fatalf("%s: Check() error = %v", tc.name, err)
		}
		if result.Gatekeeper.Allowed != tc.want || result.Licensed != tc.licensed || result.GatekeeperAllowed != tc.allowed {
			t.Fatalf("%s: result = %+v", tc.name, result)
		}
		if result.Gatekeeper.Wallet != "w1" {
			t.Fatalf("%s: wallet = %q", tc.name, result.Gatekeeper.Wallet)
		}
		if len(audit.records) != 1 || audit.records[0].status != "ok" || audit.records[0].fields["license"] != tc.licensed {
			t.Fatalf("%s: audit = %+v", tc.name, audit.records)
		}
	}
}

// ctxGatekeeper reports the context error it was called with.
type ctxGatekeeper struct{ seen *error }

func (g ctxGatekeeper) Check(ctx context.Context, wallet string) (domainaccess.Decision, error) {
	*g.seen = ctx.Err()
	return domainaccess.Decision{Allowed: true, Wallet: wallet, Mode: domainaccess.ModeDev}, nil
}

func TestCheckSurvivesCanceledRequest(t *testing.T) {
	var seen error
	audit := &memoryAudit{}
	svc := NewService(ctxGatekeeper{seen: &seen}, stubLicenses{}, audit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Check(ctx, "w1")
	if err != nil || !result.Gatekeeper.Allowed {
		t.Fatalf("Check() = %+v, %v", result, err)
	}
	if seen != nil {
		t.Fatalf("gatekeeper saw ctx error %v", seen)
	}
	if len(audit.records) != 1 || audit.records[0].status != "ok" {
		t.Fatalf("audit = %+v", audit.records)
	}
}

func TestCheckErrors(t *testing.T) {
	audit := &memoryAudit{}
	svc := NewService(stubGatekeeper{}, stubLicenses{}, audit)
	if _, err := svc.Check(context.Background(), "   "); errs.CodeOf(err, "") != "wallet_required" {
		t.Fatalf("Check(blank) error = %v", err)
	}

	svc = NewService(stubGatekeeper{err: errors.New("script exploded")}, stubLicenses{}, audit)
	_, err := svc.Check(context.Background(), "w1")
	if errs.CodeOf(err, "") != "gatekeeper_error" {
		t.Fatalf("Check() error = %v, want gatekeeper_error", err)
	}
	if len(audit.records) != 2 || audit.records[1].status != "error" {
		t.Fatalf("audit = %+v", audit.records)
	}
	meta, _ := audit.records[1].fields["meta"].(map[string]any)
	if meta["message"] != "script exploded" {
		t.Fatalf("audit meta = %+v", meta)
	}
}
