package models

// TaskStatus is ordered todo < in-progress < done.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// ValidTaskStatuses maps every status to its sort weight.
var ValidTaskStatuses = map[TaskStatus]int{
	StatusTodo:       1,
	StatusInProgress: 2,
	StatusDone:       3,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	_, ok := ValidTaskStatuses[s]
	return ok
}

// Weight is the position of s in the todo → done ordering. Unknown values sort last.
func (s TaskStatus) Weight() int {
	if w, ok := ValidTaskStatuses[s]; ok {
		return w
	}
	return len(ValidTaskStatuses) + 1
}

// Priority is displayed high first, so its sort order is not alphabetical.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities maps every priority to its sort weight.
var ValidPriorities = map[Priority]int{
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := ValidPriorities[p]
	return ok
}

// Weight returns 1 for high, 2 for medium and 3 for low.
func (p Priority) Weight() int {
	if w, ok := ValidPriorities[p]; ok {
		return w
	}
	return len(ValidPriorities) + 1
}
