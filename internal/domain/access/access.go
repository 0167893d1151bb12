package access

import "strings"

// Mode describes how the gatekeeper reached its decision.
type Mode string

const (
	ModeDev     Mode = "dev"
	ModeOnchain Mode = "onchain"
	ModeUnknown Mode = "unknown"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDev:
		return ModeDev, true
	case ModeOnchain:
		return ModeOnchain, true
	default:
		return ModeUnknown, false
	}
}

// Decision is the gatekeeper's answer for one wallet. RawMode keeps the
// collaborator's own wording when Mode is unknown.
type Decision struct {
	Wallet  string         `json:"wallet"`
	Allowed bool           `json:"allowed"`
	Mode    Mode           `json:"mode"`
	RawMode string         `json:"rawMode,omitempty"`
	License map[string]any `json:"license,omitempty"`
}

// ModeLabel is the value persisted next to an application.
func (d Decision) ModeLabel() string {
	if d.Mode == ModeUnknown && d.RawMode != "" {
		return d.RawMode
	}
	return string(d.Mode)
}

// Cookie names for the access grant.
const (
	CookieAllowed = "obi_access_allowed"
	CookieWallet  = "obi_access_wallet"
)
