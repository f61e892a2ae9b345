package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	currencyMarks = regexp.MustCompile(`(?i)(₹|\$|€|£|¥|\brs\.?|\binr\b|\busd\b|\beur\b|\bgbp\b)`)
	drCrSuffix    = regexp.MustCompile(`(?i)\s*(dr|cr)\.?\s*$`)
	amountNoise   = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "'", "", "_", "")
)

// parseSigned strips currency marks, grouping separators and a Dr/Cr suffix and
// returns the signed value. Parentheses mark a negative amount.
func parseSigned(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = drCrSuffix.ReplaceAllString(s, "")
	s = currencyMarks.ReplaceAllString(s, "")
	s = amountNoise.Replace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
		negative = true
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseAmount returns the absolute value of a statement amount.
// Western (1,000,000) and Indian (10,00,000) grouping are both accepted;
// anything non-numeric yields 0.
func ParseAmount(raw string) float64 {
	d, ok := parseSigned(raw)
	if !ok {
		return 0
	}
	return d.Abs().InexactFloat64()
}

// drCrMarker returns "dr" or "cr" when the raw amount carries that suffix.
func drCrMarker(raw string) string {
	m := drCrSuffix.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// Direction is where an amount lands when only one figure is given.
type Direction int

const (
	DirectionCredit Direction = iota
	DirectionDebit
)

func (d Direction) String() string {
	if d == DirectionDebit {
		return "debit"
	}
	return "credit"
}

// ParseDirection reads "credit" or "debit".
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "cr":
		return DirectionCredit, true
	case "debit", "dr":
		return DirectionDebit, true
	}
	return DirectionCredit, false
}

var (
	debitWords = map[string]bool{
		"debit": true, "debited": true, "dr": true, "withdrawal": true, "withdrawals": true,
		"withdraw": true, "paid": true, "payment": true, "out": true, "outflow": true,
		"outgoing": true, "expense": true, "purchase": true, "spent": true, "sent": true,
	}
	creditWords = map[string]bool{
		"credit": true, "credited": true, "cr": true, "deposit": true, "deposits": true,
		"received": true, "receipt": true, "in": true, "inflow": true, "incoming": true,
		"refund": true, "income": true,
	}
)

// classifyHint looks for debit words first, then credit words.
func classifyHint(hint string) (Direction, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(hint), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		if debitWords[tok] {
			return DirectionDebit, true
		}
	}
	for _, tok := range tokens {
		if creditWords[tok] {
			return DirectionCredit, true
		}
	}
	return DirectionCredit, false
}

// AssignDirection splits a single amount into debit and credit using, in order:
// the type hint, a Dr/Cr suffix on the amount, the sign of the amount, and
// finally the unknown policy.
func AssignDirection(amount any, hint string, unknown Direction) (debit, credit float64) {
	value, negative, marker, ok := amountValue(amount)
	if !ok || value == 0 {
		return 0, 0
	}

	dir, found := classifyHint(hint)
	if !found && marker != "" {
		dir, found = classifyHint(marker)
	}
	if !found && negative {
		dir, found = DirectionDebit, true
	}
	if !found {
		dir = unknown
	}

	if dir == DirectionDebit {
		return value, 0
	}
	return 0, value
}

// amountValue accepts decoded JSON numbers and strings.
func amountValue(v any) (value float64, negative bool, marker string, ok bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val).Abs().InexactFloat64(), val < 0, "", true
	case int:
		return float64(abs(val)), val < 0, "", true
	case int64:
		return float64(abs(int(val))), val < 0, "", true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return 0, false, "", false
		}
		return d.Abs().InexactFloat64(), d.IsNegative(), "", true
	case string:
		d, parsed := parseSigned(val)
		if !parsed {
			return 0, false, "", false
		}
		return d.Abs().InexactFloat64(), d.IsNegative(), drCrMarker(val), true
	}
	return 0, false, "", false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// formatNumber renders a decoded JSON number without exponent noise.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
