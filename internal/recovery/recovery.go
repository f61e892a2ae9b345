// Package recovery pulls a transaction candidate object out of free-form model output.
package recovery

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Result is a fully parsed candidate or an explicit empty one.
type Result struct {
	Transactions []map[string]any
	BankName     string
	// Strategy names the step that produced the result; empty when nothing did.
	Strategy string
}

// Empty reports whether no transactions were recovered.
func (r Result) Empty() bool {
	return len(r.Transactions) == 0
}

// Strategy names, in the order they are tried.
const (
	StrategyObject            = "object"
	StrategyRepairedObject    = "repaired-object"
	StrategyHJSONObject       = "hjson-object"
	StrategyTransactionsArray = "transactions-array"
	StrategyBareArray         = "bare-array"
)

type strategy struct {
	name string
	run  func(text string) (Result, bool)
}

var strategies = []strategy{
	{StrategyObject, parseObject},
	{StrategyRepairedObject, repairObject},
	{StrategyHJSONObject, hjsonObject},
	{StrategyTransactionsArray, transactionsArray},
	{StrategyBareArray, bareArray},
}

var bankNameKeys = []string{"bankName", "bank_name", "bank"}

// Recover strips a fenced block if present and then tries each strategy in
// order. It never panics and never returns a partially applied result.
func Recover(raw string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = emptyResult()
		}
	}()

	text := strings.TrimSpace(StripFence(raw))
	if text == "" {
		return emptyResult()
	}
	for _, s := range strategies {
		if res, ok := safeRun(s, text); ok {
			res.Strategy = s.name
			return res
		}
	}
	return emptyResult()
}

func emptyResult() Result {
	return Result{Transactions: []map[string]any{}}
}

// safeRun shields the chain from panics inside third-party parsers.
func safeRun(s strategy, text string) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			res, ok = Result{}, false
		}
	}()
	return s.run(text)
}

// parseObject decodes the first balanced object that matches the candidate schema.
func parseObject(text string) (Result, bool) {
	for _, span := range balancedSpans(text, '{', '}') {
		if res, ok := decodeCandidate([]byte(span)); ok {
			return res, true
		}
	}
	return Result{}, false
}

// repairObject runs balanced objects through json-repair. When the output was
// cut off and no object closes, everything from the first brace is repaired.
func repairObject(text string) (Result, bool) {
	spans := balancedSpans(text, '{', '}')
	if len(spans) == 0 {
		if start := strings.IndexByte(text, '{'); start >= 0 {
			spans = []string{text[start:]}
		}
	}
	for _, span := range spans {
		repaired, err := jsonrepair.RepairJSON(span)
		if err != nil {
			continue
		}
		if res, ok := decodeCandidate([]byte(repaired)); ok {
			return res, true
		}
	}
	return Result{}, false
}

// hjsonObject accepts relaxed syntax such as unquoted keys and comments.
func hjsonObject(text string) (Result, bool) {
	for _, span := range balancedSpans(text, '{', '}') {
		var v any
		if err := hjson.Unmarshal([]byte(span), &v); err != nil {
			continue
		}
		normalized, err := json.Marshal(v)
		if err != nil {
			continue
		}
		if res, ok := decodeCandidate(normalized); ok {
			return res, true
		}
	}
	return Result{}, false
}

// transactionsArray parses only the array value of a "transactions" field.
func transactionsArray(text string) (Result, bool) {
	idx := strings.Index(text, `"transactions"`)
	if idx < 0 {
		return Result{}, false
	}
	rest := text[idx+len(`"transactions"`):]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return Result{}, false
	}
	rest = strings.TrimSpace(rest[colon+1:])
	if !strings.HasPrefix(rest, "[") {
		return Result{}, false
	}
	spans := balancedSpans(rest, '[', ']')
	if len(spans) == 0 {
		return Result{}, false
	}
	items, ok := decodeObjectArray(spans[0])
	if !ok {
		return Result{}, false
	}
	return Result{Transactions: items, BankName: scanBankName(text)}, true
}

// bareArray handles a top-level array of transaction objects.
func bareArray(text string) (Result, bool) {
	for _, span := range balancedSpans(text, '[', ']') {
		if items, ok := decodeObjectArray(span); ok && len(items) > 0 {
			return Result{Transactions: items}, true
		}
	}
	return Result{}, false
}

// decodeCandidate parses and validates a candidate object.
func decodeCandidate(data []byte) (Result, bool) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Result{}, false
	}
	if err := candidateSchema.Validate(v); err != nil {
		return Result{}, false
	}
	obj := v.(map[string]any)

	items, _ := obj["transactions"].([]any)
	txs := make([]map[string]any, 0, len(items))
	for _, it := range items {
		txs = append(txs, it.(map[string]any))
	}
	return Result{Transactions: txs, BankName: bankName(obj)}, true
}

// decodeObjectArray keeps the object elements of a JSON array.
func decodeObjectArray(span string) ([]map[string]any, bool) {
	var items []any
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(span)
		if rerr != nil {
			return nil, false
		}
		if err := json.Unmarshal([]byte(repaired), &items); err != nil {
			return nil, false
		}
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	if len(items) > 0 && len(out) == 0 {
		return nil, false
	}
	return out, true
}

func bankName(obj map[string]any) string {
	for _, k := range bankNameKeys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// scanBankName finds a "bankName": "..." pair in text that did not parse as a whole.
func scanBankName(text string) string {
	for _, k := range bankNameKeys {
		idx := strings.Index(text, `"`+k+`"`)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(k)+2:]
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			continue
		}
		var s string
		dec := json.NewDecoder(strings.NewReader(rest[colon+1:]))
		if err := dec.Decode(&s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
