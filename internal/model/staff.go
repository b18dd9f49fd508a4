package model

import (
	"time"
)

// StaffUser is an internal identity: a dispatcher or fleet operator with a
// pre-existing account. Device pairing attaches to the record, creation
// happens through back-office provisioning only.
type StaffUser struct {
	ID              string     `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	Name            string     `db:"name" json:"name"`
	Role            string     `db:"role" json:"role"`
	DeviceKeyHash   *string    `db:"device_key_hash" json:"-"`
	LastConnectedAt *time.Time `db:"last_connected_at" json:"lastConnectedAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}
