package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var be *BundleError
	if !stderrors.As(err, &be) {
		be = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", be.Message))

	if be.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", be.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", be.Code))

	return sb.String()
}

// FormatForLog returns slog attributes describing err.
func FormatForLog(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	var be *BundleError
	if !stderrors.As(err, &be) {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", be.Code),
		slog.String("message", be.Message),
		slog.String("category", string(be.Category)),
		slog.String("severity", string(be.Severity)),
	}

	if be.Cause != nil {
		attrs = append(attrs, slog.String("cause", be.Cause.Error()))
	}

	for k, v := range be.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}

	return attrs
}
