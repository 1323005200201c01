package config

import (
	"fmt"
	"strings"
)

// UnknownReferenceError reports an extends entry naming a task that does
// not exist in the document.
type UnknownReferenceError struct {
	Task TaskID // the task whose extends list is bad
	Ref  TaskID // the id it names
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("task %q extends unknown task %q", e.Task, e.Ref)
}

// CycleError reports tasks whose extends chains never terminate: every
// listed task waits, directly or transitively, on another listed task.
type CycleError struct {
	Tasks []TaskID // sorted
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among tasks: %s", strings.Join(e.Tasks, ", "))
}
