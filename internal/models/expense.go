package models

import (
	"strings"
	"time"
)

// DateLayout is the ISO date format used for due dates and expense dates.
const DateLayout = "2006-01-02"

// Expense represents a financial expense record.
type Expense struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	UserID      string  `json:"userId"`
	CreatedAt   string  `json:"createdAt"`
}

// Todo represents a task on the user's list.
type Todo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	UserID      string   `json:"userId"`
	CreatedAt   string   `json:"createdAt"`
}

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the priority named by s, case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// Due parses the todo's due date. ok is false when it is missing or malformed.
func (t Todo) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	// Servers may send a full timestamp; the date part is enough.
	d, err := time.Parse(DateLayout, firstN(t.DueDate, len(DateLayout)))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Today formats the current local date.
func Today() string {
	return time.Now().Format(DateLayout)
}
