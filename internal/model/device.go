package model

import (
	"time"
)

// MobileDevice describes a phone paired to an identity. Informational only;
// the device key hash on the identity record is what carries authorization.
type MobileDevice struct {
	ID           string       `db:"id" json:"id"`
	OwnerKind    IdentityKind `db:"owner_kind" json:"ownerKind"`
	OwnerID      string       `db:"owner_id" json:"ownerId"`
	DeviceName   string       `db:"device_name" json:"deviceName"`
	DeviceModel  string       `db:"device_model" json:"deviceModel"`
	Platform     string       `db:"platform" json:"platform"`
	LastActiveAt time.Time    `db:"last_active_at" json:"lastActiveAt"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}

type UpsertMobileDeviceParams struct {
	OwnerKind   IdentityKind
	OwnerID     string
	DeviceName  string
	DeviceModel string
	Platform    string
}
