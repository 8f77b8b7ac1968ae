package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks transport-level failures: the remote service could
	// not be reached. Entries affected by it are retried on the next run.
	ErrTransient = errors.New("transient failure")
	// ErrRemote marks a reachable service answering with a non-success
	// status. Not retried automatically.
	ErrRemote = errors.New("remote rejection")
	// ErrNotFound marks a missing archive or archive member.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks unusable local configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes service context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
