package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConversion    = errors.New("conversion failure")
	ErrMux           = errors.New("mux failure")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrUnsupported   = errors.New("unsupported")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemFailure reports whether err is contained at the per-item boundary of a
// batch (conversion or mux) rather than aborting the run.
func IsItemFailure(err error) bool {
	return errors.Is(err, ErrConversion) || errors.Is(err, ErrMux)
}

// FailureKind returns a short label for the marker carried by err.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrMux):
		return "mux"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		return "external_tool"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
