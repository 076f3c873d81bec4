package render

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// classifierCandidates limits the go-enry classifier to languages that turn
// up in notes and READMEs.
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Dockerfile",
}

// patternRule recognizes a language from a strong textual signal before the
// statistical classifier is consulted.
type patternRule struct {
	lang  string
	match func(code string, trimmed string) bool
}

var patternRules = []patternRule{
	{"go", func(_, t string) bool { return strings.HasPrefix(t, "package ") }},
	{"python", func(c, _ string) bool {
		return (strings.Contains(c, "def ") && strings.Contains(c, "):")) ||
			strings.Contains(c, "__name__")
	}},
	{"html", func(_, t string) bool {
		l := strings.ToLower(t)
		return strings.HasPrefix(l, "<!doctype html") || strings.Contains(l, "<html")
	}},
	{"json", func(_, t string) bool {
		return (strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")) && strings.Contains(t, `"`) &&
			!strings.Contains(t, ";")
	}},
	{"docker", func(c, t string) bool {
		return strings.HasPrefix(t, "FROM ") || (strings.Contains(c, "WORKDIR ") && strings.Contains(c, "COPY "))
	}},
	{"sql", func(_, t string) bool {
		u := strings.ToUpper(t)
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if strings.HasPrefix(u, kw) {
				return true
			}
		}
		return false
	}},
	{"rust", func(c, _ string) bool {
		return strings.Contains(c, "fn main()") || strings.Contains(c, "println!") || strings.Contains(c, "let mut ")
	}},
	{"javascript", func(c, _ string) bool {
		return strings.Contains(c, "=>") || strings.Contains(c, "console.log") || strings.Contains(c, "const ")
	}},
}

// DetectLanguage guesses the language of an unlabeled code block and returns
// a chroma lexer name, or "" when unsure. A shebang decides first, then
// pattern rules, then the go-enry classifier when it is confident.
func DetectLanguage(code []byte) string {
	trimmed := bytes.TrimSpace(code)
	if len(trimmed) == 0 {
		return ""
	}

	if lang, safe := enry.GetLanguageByShebang(code); safe {
		return lexerName(lang)
	}

	c, t := string(code), string(trimmed)
	for _, rule := range patternRules {
		if rule.match(c, t) {
			return rule.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(code, classifierCandidates); safe && lang != "" {
		return lexerName(lang)
	}
	return ""
}

// lexerName converts a go-enry language name to a chroma lexer alias.
func lexerName(lang string) string {
	switch lang {
	case "Shell":
		return "bash"
	case "Dockerfile":
		return "docker"
	default:
		return strings.ToLower(lang)
	}
}
