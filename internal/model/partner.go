package model

import (
	"time"
)

// Partner is a contracted limousine or fleet company supplying drivers.
type Partner struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactEmail string    `db:"contact_email" json:"contactEmail"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type CreatePartnerParams struct {
	ID           string
	Name         string
	ContactEmail string
	Phone        *string
}

type UpdatePartnerParams struct {
	Name         *string
	ContactEmail *string
	Phone        *string
}
