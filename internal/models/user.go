package models

import "time"

type User struct {
	UserID       string    `json:"user_id" db:"user_id"`
	UserName     string    `json:"user_name" db:"user_name"`
	UserPassword string    `json:"-" db:"user_password"`
	UserRole     string    `json:"user_role" db:"user_role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
