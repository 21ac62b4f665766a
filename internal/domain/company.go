package domain

import "time"

// Company models a manufacturer/supplier record managed from the admin console.
type Company struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
