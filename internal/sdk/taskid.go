package sdk

import "github.com/google/uuid"

// NewTaskID generates a fresh task id for a workflow author who doesn't
// need a human-meaningful one. Spec.md §3 only requires task ids be
// stable for the duration of a task and unique within a phase; a random
// id trivially satisfies that without the workflow tracking a counter
// itself, the same reasoning runtime.newUUIDHandle applies to execution
// handles.
func NewTaskID() string {
	return uuid.New().String()
}
