package models

import "time"

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
