package account

import "time"

// Role is the closed set of account roles. Transitions only move forward:
// an unassigned account becomes a driver or a passenger exactly once and
// never goes back.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleDriver     Role = "driver"
	RolePassenger  Role = "passenger"
)

// ValidRole reports whether r is a member of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleUnassigned, RoleDriver, RolePassenger:
		return true
	default:
		return false
	}
}

// Status tracks where an account sits in its lifecycle.
type Status string

const (
	// StatusPendingRole marks a base signup that has not picked a role yet.
	StatusPendingRole Status = "pending_role"
	// StatusPendingVerification marks a driver awaiting the admin document check.
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusSuspended           Status = "suspended"
)

// Account is the domain representation of a platform user. It mirrors the
// accounts table and carries no JSON annotations so it can back both the
// token and the legacy session surfaces.
type Account struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DriverProfile holds the license and vehicle data created atomically with
// the driver role transition.
type DriverProfile struct {
	AccountID       string
	LicenseNumber   string
	LicenseType     string
	LicenseExpiry   time.Time
	VehicleBrand    string
	VehicleModel    string
	VehicleColor    string
	VehicleYear     int
	PlateNumber     string
	SeatsAvailable  int
	LicenseImageRef string
	VehiclePhotoRef string
	ProfilePhotoRef string
	CreatedAt       time.Time
}

// PassengerProfile holds the passenger data created atomically with the
// passenger role transition.
type PassengerProfile struct {
	AccountID        string
	PreferredPayment string
	ProfilePhotoRef  string
	CreatedAt        time.Time
}
