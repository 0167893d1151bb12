package model

// All lists every table model in migration order.
func All() []any {
	return []any{
		&Application{},
		&Triage{},
		&TriageStatus{},
		&Payment{},
		&License{},
		&KV{},
	}
}
