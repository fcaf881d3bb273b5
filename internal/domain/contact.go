package domain

import "time"

// ContactMessage is a visitor submission from the public contact form.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Message   string
	Handled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
