package recovery

// balancedSpans returns every top-level span opened by open and closed by the
// matching close, in order of appearance. Depth counting skips delimiters
// inside JSON string literals. An unterminated span ends the scan.
func balancedSpans(s string, open, close byte) []string {
	var spans []string
	for i := 0; i < len(s); i++ {
		if s[i] != open {
			continue
		}
		end, ok := matchClose(s, i, open, close)
		if !ok {
			break
		}
		spans = append(spans, s[i:end+1])
		i = end
	}
	return spans
}

// matchClose returns the index of the delimiter closing the one at start.
func matchClose(s string, start int, open, close byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}
