package observability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/buswatch/buswatch/internal/schema"
)

const lineTimeLayout = "2006-01-02 15:04:05"

// FormatRecord renders a structured log record as a single console line:
//
//	2025-01-02 13:37:00 [INFO] [console] started base=/dev-console
func FormatRecord(rec schema.LogRecord) string {
	var b strings.Builder
	b.WriteString(rec.Time.Format(lineTimeLayout))
	b.WriteString(" [")
	if rec.Level == "" {
		b.WriteString(string(schema.LevelInfo))
	} else {
		b.WriteString(string(rec.Level))
	}
	b.WriteString("]")
	if rec.Component != "" {
		b.WriteString(" [")
		b.WriteString(rec.Component)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(rec.Message)
	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, rec.Fields[k])
		}
	}
	return b.String()
}

// FormatPayload renders any logging-channel payload as a line. Records that
// are not LogRecords degrade to their plain string form so one malformed
// record never aborts a capture.
func FormatPayload(payload any) string {
	switch rec := payload.(type) {
	case schema.LogRecord:
		return FormatRecord(rec)
	case *schema.LogRecord:
		if rec == nil {
			return ""
		}
		return FormatRecord(*rec)
	case nil:
		return ""
	default:
		return fmt.Sprint(payload)
	}
}
