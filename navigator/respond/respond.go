// Package respond renders structured tool results into human-readable text.
package respond

import (
	"errors"
	"fmt"
	"strings"

	"github.com/policynav/policy-navigator/pkg/resilient"
)

// Fields is a loosely-typed result payload from a remote tool.
type Fields map[string]any

// Format renders a policy result. A payload carrying an "error" key renders
// as exactly two lines and all other keys are ignored. Otherwise present
// fields emit in a fixed order; absent fields are silently omitted, never
// fabricated.
func Format(data Fields) string {
	if errVal, ok := data["error"]; ok {
		details := "N/A"
		if d, ok := data["details"]; ok {
			details = stringify(d)
		}
		return fmt.Sprintf("Error: %s\nDetails: %s", stringify(errVal), details)
	}

	var formatted []string

	if title, ok := data["title"]; ok {
		formatted = append(formatted, fmt.Sprintf("**%s**\n", stringify(title)))
	}
	if status, ok := data["status"]; ok {
		formatted = append(formatted, "Status: "+stringify(status))
	}
	if date, ok := data["publication_date"]; ok {
		formatted = append(formatted, "Publication Date: "+stringify(date))
	}
	if summary, ok := data["summary"]; ok {
		formatted = append(formatted, "\nSummary:\n"+stringify(summary))
	}
	if source, ok := data["source"]; ok {
		formatted = append(formatted, "\nSource: "+stringify(source))
	}
	if u, ok := data["url"]; ok {
		formatted = append(formatted, "Link: "+stringify(u))
	}

	return strings.Join(formatted, "\n")
}

// FormatError renders any error as the two-line error block. Classified
// errors keep their kind label and cause; everything else renders as an
// internal error.
func FormatError(err error) string {
	var rerr *resilient.Error
	if errors.As(err, &rerr) {
		details := rerr.Message
		if rerr.Cause != nil {
			details = rerr.Cause.Error()
		}
		return Format(Fields{"error": rerr.Kind.Label(), "details": details})
	}
	return Format(Fields{"error": resilient.KindInternal.Label(), "details": err.Error()})
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
