package recovery

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripFence returns the interior of the first fenced code block that looks
// like JSON, or the first fenced block otherwise, with surrounding whitespace
// trimmed. Text without a fence is returned as-is. An unclosed fence runs to
// the end of the input.
func StripFence(raw string) string {
	if !strings.Contains(raw, "```") && !strings.Contains(raw, "~~~") {
		return raw
	}

	src := []byte(raw)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var first, jsonLike []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var body bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		if first == nil {
			first = body.Bytes()
		}
		if bytes.ContainsAny(body.Bytes(), "{[") {
			jsonLike = body.Bytes()
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	switch {
	case jsonLike != nil:
		return strings.TrimSpace(string(jsonLike))
	case first != nil:
		return strings.TrimSpace(string(first))
	default:
		return raw
	}
}
