package nlsearch

import (
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// Interpretations used when the model does not supply one.
const (
	InterpretationDefault   = "AI生成的查询"
	InterpretationExtracted = "从文本中提取的查询"
	InterpretationUnparsed  = "无法解析AI响应"
)

// Parsed is the outcome of the response parser chain.
type Parsed struct {
	SQL            string
	Interpretation string
	Found          bool
	// Discarded is a structured sql value that did not start with SELECT.
	Discarded string
}

// structured is the JSON shape requested in the prompt. Conditions are not used downstream.
type structured struct {
	SQL            string          `json:"sql"`
	Interpretation string          `json:"interpretation"`
	Conditions     json.RawMessage `json:"conditions"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

var textTerminators = []string{"```", "\n\n", "\r\n\r\n"}

// ParseResponse runs the parser attempts in order: strict JSON, JSON inside a
// code fence, then a raw scan for the first SELECT. First success wins.
func ParseResponse(raw string) Parsed {
	var discarded string

	for _, attempt := range []func(string) (structured, bool){parseStrictJSON, parseFencedJSON} {
		s, ok := attempt(raw)
		if !ok {
			continue
		}
		sql := strings.TrimSpace(s.SQL)
		if hasSelectPrefix(sql) {
			return Parsed{SQL: sql, Interpretation: interpretationOrDefault(s.Interpretation), Found: true}
		}
		if sql != "" && discarded == "" {
			discarded = sql
		}
	}

	if sql, ok := scanText(raw); ok {
		return Parsed{SQL: sql, Interpretation: InterpretationExtracted, Found: true, Discarded: discarded}
	}
	return Parsed{Interpretation: InterpretationUnparsed, Discarded: discarded}
}

// parseStrictJSON decodes the whole trimmed text as the structured response.
func parseStrictJSON(raw string) (structured, bool) {
	var s structured
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &s); err != nil {
		return structured{}, false
	}
	return s, true
}

// parseFencedJSON decodes the first ```json fenced object.
func parseFencedJSON(raw string) (structured, bool) {
	m := fencedJSON.FindStringSubmatch(raw)
	if m == nil {
		return structured{}, false
	}
	var s structured
	if err := json.Unmarshal([]byte(m[1]), &s); err != nil {
		return structured{}, false
	}
	return s, true
}

// scanText cuts from the first case-insensitive SELECT to the earliest code
// fence or blank line.
func scanText(raw string) (string, bool) {
	start := indexFoldASCII(raw, "SELECT")
	if start < 0 {
		return "", false
	}
	candidate := raw[start:]

	end := len(candidate)
	for _, term := range textTerminators {
		if i := strings.Index(candidate, term); i >= 0 && i < end {
			end = i
		}
	}
	candidate = strings.TrimSpace(candidate[:end])
	candidate = strings.TrimSpace(strings.TrimRight(candidate, ","))

	if !hasSelectPrefix(candidate) {
		return "", false
	}
	return candidate, true
}

func interpretationOrDefault(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return InterpretationDefault
}

// hasSelectPrefix reports whether s starts with SELECT, ignoring ASCII case.
func hasSelectPrefix(s string) bool {
	return len(s) >= len("SELECT") && equalFoldASCII(s[:len("SELECT")], "SELECT")
}

// indexFoldASCII is strings.Index with ASCII case folding. Byte offsets stay
// valid for the original string, unlike searching an upper-cased copy.
func indexFoldASCII(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
