package model

import (
	"time"
)

// Driver is an external identity: a chauffeur discovered either through
// partner onboarding or through self-registration at token redemption.
type Driver struct {
	ID              string     `db:"id" json:"id"`
	ExternalID      string     `db:"external_id" json:"externalId"`
	Name            string     `db:"name" json:"name"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Email           *string    `db:"email" json:"email,omitempty"`
	PartnerID       *string    `db:"partner_id" json:"partnerId,omitempty"`
	DeviceKeyHash   *string    `db:"device_key_hash" json:"-"`
	LastConnectedAt *time.Time `db:"last_connected_at" json:"lastConnectedAt,omitempty"`
	DisabledAt      *time.Time `db:"disabled_at" json:"disabledAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

type UpsertDriverParams struct {
	ExternalID string
	Name       string
	Phone      *string
	Email      *string
}

type UpdateDriverParams struct {
	Name      *string
	Phone     *string
	Email     *string
	PartnerID *string
}
