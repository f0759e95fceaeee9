package watcher

import "fmt"

// ConfigMissingError reports the precondition that stopped a cycle before
// fetching. It is retried naturally on the next tick.
type ConfigMissingError struct {
	Reason string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("watcher not configured: %s", e.Reason)
}

// PersistenceError aborts the current cycle when the store is unavailable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
