package models

import "time"

const (
	StatusToDo       = "To-Do"
	StatusInProgress = "In-Progress"
	StatusCompleted  = "Completed"
)

const (
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
)

// ValidStatus reports whether status is one of the three task lanes.
func ValidStatus(status string) bool {
	return status == StatusToDo ||
		status == StatusInProgress ||
		status == StatusCompleted
}

// Attachment is a file stored inline with its task document.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Category    string
	Attachment  *Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
