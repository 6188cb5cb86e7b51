package finch

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/soyeahso/finch-mcp/internal/logging"
)

// ParseJSONLines decodes output holding one JSON object per line. Blank lines
// are skipped. Empty output yields an empty, non-nil slice. The first line
// that fails to decode aborts the parse.
func ParseJSONLines(output string) ([]map[string]any, error) {
	items := []map[string]any{}
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return items, nil
	}

	for i, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var item map[string]any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// countTableRows counts data rows in finch's plain-text table output,
// which starts with a header line unless quiet output was requested.
func countTableRows(output string, hasHeader bool) int {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return 0
	}
	n := len(strings.Split(trimmed, "\n"))
	if hasHeader {
		n--
	}
	return n
}

// withoutJSONFormat drops a "--format json" pair from args.
func withoutJSONFormat(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--format" && i+1 < len(args) && args[i+1] == "json" {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}

// sensitiveEnvKey matches environment variable names whose values should
// not be echoed back from inspect output.
var sensitiveEnvKey = regexp.MustCompile(`(?i)(PASSWORD|PASSWD|SECRET|TOKEN|API_?KEY|ACCESS_?KEY|CREDENTIAL|PRIVATE_?KEY)`)

// envPair matches KEY=value words in template output such as {{.Config.Env}}.
var envPair = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)=([^\s"\],]+)`)

// redactEnvText masks sensitive KEY=value pairs and credentials in inspect
// output that was not decoded as JSON.
func redactEnvText(s string) string {
	s = envPair.ReplaceAllStringFunc(s, func(m string) string {
		name, _, _ := strings.Cut(m, "=")
		if sensitiveEnvKey.MatchString(name) {
			return name + "=REDACTED"
		}
		return m
	})
	return logging.Redact(s)
}

// redactEnv walks decoded inspect output and masks the value half of any
// "KEY=value" entry under an "Env" key whose name looks sensitive.
func redactEnv(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if k == "Env" {
				if list, ok := child.([]any); ok {
					for i, e := range list {
						s, ok := e.(string)
						if !ok {
							continue
						}
						name, _, found := strings.Cut(s, "=")
						if found && sensitiveEnvKey.MatchString(name) {
							list[i] = name + "=REDACTED"
						}
					}
					continue
				}
			}
			t[k] = redactEnv(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = redactEnv(child)
		}
		return t
	default:
		return v
	}
}
