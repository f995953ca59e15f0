package logtail

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// fixed keys written by the zap JSON encoder.
var reserved = map[string]bool{
	"ts": true, "level": true, "logger": true, "msg": true,
	"caller": true, "stacktrace": true,
}

// FormatLine renders one JSON log entry as
//
//	2026-10-19T08:00:00.000Z INFO  [ladle.http] request completed method=GET status=200
//
// Lines that are not JSON objects are returned unchanged.
func FormatLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return line
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(trimmed), &entry); err != nil {
		return line
	}

	var b strings.Builder
	if ts, ok := entry["ts"].(string); ok {
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	level, _ := entry["level"].(string)
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(level))
	if name, ok := entry["logger"].(string); ok && name != "" {
		fmt.Fprintf(&b, " [%s]", name)
	}
	if msg, ok := entry["msg"].(string); ok {
		b.WriteByte(' ')
		b.WriteString(msg)
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, formatValue(entry[k]))
	}
	return b.String()
}

// FormatLines applies FormatLine to each line.
func FormatLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = FormatLine(line)
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
