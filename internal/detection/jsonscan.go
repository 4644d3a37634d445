package detection

import "encoding/json"

// ExtractJSONObject returns the first well-formed JSON object embedded in
// free-form text. LLM judges are told to reply with bare JSON but routinely
// wrap it in prose or markdown code fences, so the reply is scanned rather
// than unmarshalled wholesale.
//
// The scan walks brace depth while honoring string literals and escapes;
// each balanced candidate is verified with json.Valid before it is
// returned. Truncated objects and non-JSON brace runs are skipped.
func ExtractJSONObject(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if escaped {
				escaped = false
				continue
			}
			if inString {
				switch c {
				case '\\':
					escaped = true
				case '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					// Balanced but invalid (e.g. {1,2}); resume the
					// outer scan past this opening brace.
					i = len(s)
				}
			}
		}
		// Ran off the end: the object starting here is truncated.
	}
	return "", false
}
