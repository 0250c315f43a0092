package container

import (
	"fmt"
	"strings"
)

// coreServices names what Build wires, in Services field order
var coreServices = []string{"accounts", "follows", "content", "likes", "comments", "feed"}

// InitializationError is returned by Build when a dependency the core
// services need was never registered
type InitializationError struct {
	Missing  []string
	Services []string
}

func newInitializationError(missing []string) *InitializationError {
	return &InitializationError{Missing: missing, Services: coreServices}
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("cannot build %s services: missing %s",
		strings.Join(e.Services, ", "), strings.Join(e.Missing, ", "))
}
