package model

import "fmt"

// IdentityKind distinguishes the two variants of a pairable identity.
type IdentityKind string

const (
	// IdentityKindStaff is a pre-existing internal user account. Pairing
	// only attaches a device, it never creates the record.
	IdentityKindStaff IdentityKind = "staff"
	// IdentityKindDriver is an external identity that may be created at
	// redemption time (driver self-registration).
	IdentityKindDriver IdentityKind = "driver"
)

func ParseIdentityKind(s string) (IdentityKind, error) {
	switch IdentityKind(s) {
	case IdentityKindStaff, IdentityKindDriver:
		return IdentityKind(s), nil
	}
	return "", fmt.Errorf("unknown identity kind %q", s)
}

// PairedIdentity is a tagged reference to exactly one identity record:
// either a staff user or a driver, never both and never neither.
type PairedIdentity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id"`
}

func StaffIdentity(id string) PairedIdentity {
	return PairedIdentity{Kind: IdentityKindStaff, ID: id}
}

func DriverIdentity(id string) PairedIdentity {
	return PairedIdentity{Kind: IdentityKindDriver, ID: id}
}
