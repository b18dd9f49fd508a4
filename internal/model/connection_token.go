package model

import (
	"time"
)

// ConnectionToken is a single-use, time-limited secret that authorizes one
// pairing of a mobile device to an identity. Only the SHA-256 digest of the
// token is stored; the raw token leaves the server exactly once, inside the
// pairing QR payload.
type ConnectionToken struct {
	ID        string     `db:"id" json:"id"`
	TokenHash string     `db:"token_hash" json:"-"`
	StaffID   *string    `db:"staff_id" json:"staffId,omitempty"`
	DriverID  *string    `db:"driver_id" json:"driverId,omitempty"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateConnectionTokenParams struct {
	TokenHash string
	StaffID   *string
	ExpiresAt time.Time
}

// IsExpired reports whether the token's lifetime has passed. Redemption
// exactly at ExpiresAt counts as expired.
func (t *ConnectionToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsRedeemable reports whether the token can still be redeemed.
func (t *ConnectionToken) IsRedeemable() bool {
	return t.UsedAt == nil && !t.IsExpired()
}
