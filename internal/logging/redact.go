package logging

import (
	"io"
	"regexp"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Each rule tolerates a JSON-escaped quote so redaction inside an encoded
// log line keeps the line valid JSON.
var redactRules = []rule{
	{regexp.MustCompile(`(?i)(api[_-]?key[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(?i)(password[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(?i)(secret[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(?i)(oauth[_-]?token[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(?i)(token[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(?i)(credentials?[=:]\s*\\?['"]?)[^'"\s\\]+(\\?['"]?)`), "${1}REDACTED${2}"},
	{regexp.MustCompile(`(https?://)([^:@\s/"]+):([^:@\s/"]+)@`), "${1}REDACTED:REDACTED@"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{5,}\.eyJ[a-zA-Z0-9_-]{5,}\.[a-zA-Z0-9_-]{5,}`), "JWT_TOKEN_REDACTED"},
}

// Runs of exactly this length and alphabet look like AWS key material.
// Go regexp has no lookaround, so whole runs are matched and measured.
var (
	accessKeyRun = regexp.MustCompile(`[A-Z0-9]+`)
	secretKeyRun = regexp.MustCompile(`[A-Za-z0-9/+=]+`)
)

// Redact masks credentials and key material in s.
func Redact(s string) string {
	s = secretKeyRun.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) == 40 {
			return "AWS_SECRET_KEY_REDACTED"
		}
		return m
	})
	s = accessKeyRun.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) == 20 {
			return "AWS_ACCESS_KEY_REDACTED"
		}
		return m
	})
	for _, r := range redactRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Redactor is an io.Writer that masks sensitive data before forwarding
// each write to the underlying sink.
type Redactor struct {
	out io.Writer
}

// NewRedactor wraps w. Wrapping an existing Redactor returns it unchanged.
func NewRedactor(w io.Writer) *Redactor {
	if r, ok := w.(*Redactor); ok {
		return r
	}
	return &Redactor{out: w}
}

// Write redacts p and writes the result. It reports len(p) on success so
// callers that check byte counts are not confused by the rewritten length.
func (r *Redactor) Write(p []byte) (int, error) {
	if _, err := r.out.Write([]byte(Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
