package models

import "time"

// Player is a permanent roster record, the target of the completion
// migration. Auction players are matched against it by (name, phone),
// (name, email) or (name, city).
type Player struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Email       *string   `json:"email,omitempty" db:"email"`
	City        *string   `json:"city,omitempty" db:"city"`
	PlayingRole *string   `json:"playing_role,omitempty" db:"playing_role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
