package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SanitizedAnswers is the only form of the questionnaire that is ever
// persisted. Raw name, national id, email and handle never leave intake.
type SanitizedAnswers struct {
	Name            string `json:"name"`
	NationalIDHash  string `json:"cpfHash"`
	NationalIDLast4 string `json:"cpfLast4"`
	EmailHash       string `json:"emailHash"`
	EmailDomain     string `json:"emailDomain"`
	Handle          string `json:"handle"`
	Referral        string `json:"referral"`
}

func Sanitize(answers map[string]string) SanitizedAnswers {
	rawEmail := answers[AnswerEmail]
	rawID := answers[AnswerNationalID]
	return SanitizedAnswers{
		Name:            Mask(answers[AnswerName]),
		NationalIDHash:  Hash(rawID),
		NationalIDLast4: LastDigits(rawID, 4),
		EmailHash:       Hash(rawEmail),
		EmailDomain:     EmailDomain(rawEmail),
		Handle:          Mask(answers[AnswerHandle]),
		Referral:        strings.TrimSpace(answers[AnswerReferral]),
	}
}

// Mask keeps the first and last two runes: "Satoshi" -> "Sa***hi".
// Values of four runes or fewer are returned trimmed but unmasked.
func Mask(value string) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= 4 {
		return string(runes)
	}
	return string(runes[:2]) + "***" + string(runes[len(runes)-2:])
}

// Hash is a deterministic hex SHA-256 of the trimmed value; blank maps to "".
func Hash(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])
}

// LastDigits strips every non-digit and keeps at most n trailing digits.
func LastDigits(value string, n int) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// EmailDomain returns the lowercased part after the first "@", or "".
func EmailDomain(value string) string {
	trimmed := strings.TrimSpace(value)
	_, domain, found := strings.Cut(trimmed, "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}
