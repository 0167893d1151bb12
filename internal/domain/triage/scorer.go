package triage

import (
	"math"
	"strconv"
	"strings"
)

// Questionnaire keys as sent by the application form.
const (
	AnswerName       = "q1"
	AnswerNationalID = "q2"
	AnswerEmail      = "q4"
	AnswerHandle     = "q5"
	AnswerYears      = "q6"
	AnswerCapital    = "q7"
	AnswerProfile    = "q8"
	AnswerReferral   = "q9"
)

const (
	TagSenior      = "senior"
	TagMid         = "mid"
	TagJunior      = "junior"
	TagCapitalHigh = "capital_high"
	TagCapitalMid  = "capital_mid"
	TagCapitalLow  = "capital_low"
	TagHybrid      = "hybrid"
	TagDev         = "dev"
	TagTrader      = "trader"
	TagReferral    = "referral"
)

type Result struct {
	Score int      `json:"score"`
	Tier  Tier     `json:"tier"`
	Tags  []string `json:"tags"`
}

type band struct {
	min    float64
	strict bool
	points int
	tag    string
}

var experienceBands = []band{
	{min: 5, points: 20, tag: TagSenior},
	{min: 2, points: 12, tag: TagMid},
	{min: 0, strict: true, points: 6, tag: TagJunior},
}

var capitalBands = []band{
	{min: 10000, points: 20, tag: TagCapitalHigh},
	{min: 5000, points: 15, tag: TagCapitalMid},
	{min: 1000, points: 10, tag: TagCapitalLow},
}

// Score maps a questionnaire to points, a tier and tags. Categories are
// independent and summed; within a category the first matching band wins.
// Tags keep rule order.
func Score(answers map[string]string) Result {
	score := 0
	tags := make([]string, 0, 4)

	add := func(points int, tag string) {
		score += points
		tags = append(tags, tag)
	}

	if b, ok := matchBand(experienceBands, toNumber(answers[AnswerYears])); ok {
		add(b.points, b.tag)
	}
	if b, ok := matchBand(capitalBands, toNumber(answers[AnswerCapital])); ok {
		add(b.points, b.tag)
	}

	profile := strings.ToLower(answers[AnswerProfile])
	isDev := strings.Contains(profile, "dev")
	isTrader := strings.Contains(profile, "trad")
	switch {
	case isDev && isTrader:
		add(12, TagHybrid)
	case isDev:
		add(8, TagDev)
	case isTrader:
		add(6, TagTrader)
	}

	if strings.TrimSpace(answers[AnswerReferral]) != "" {
		add(4, TagReferral)
	}

	return Result{Score: score, Tier: TierForScore(score), Tags: tags}
}

func matchBand(bands []band, value float64) (band, bool) {
	for _, b := range bands {
		if value > b.min || (!b.strict && value == b.min) {
			return b, true
		}
	}
	return band{}, false
}

// toNumber parses the leading decimal prefix of raw, [sign]digits[.digits]
// with an optional exponent, ignoring whatever follows it. Missing,
// non-numeric and non-finite inputs yield 0.
func toNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			end = j
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
