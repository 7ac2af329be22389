package entity

import "time"

// Employee is a user of the system. Roles holds raw role tokens; see the
// access package for their meaning.
type Employee struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department,omitempty"`
	Position   string    `json:"position,omitempty"`
	Roles      []string  `json:"roles"`
	ChatID     string    `json:"chat_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
