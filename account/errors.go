package account

import "errors"

var (
	// ErrNotFound signals that the account does not exist.
	ErrNotFound = errors.New("account: not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("account: email already exists")
	// ErrDuplicatePhone signals that the phone number is already registered.
	ErrDuplicatePhone = errors.New("account: phone already exists")
	// ErrDuplicateLicense signals that the license number belongs to another driver.
	ErrDuplicateLicense = errors.New("account: license number already exists")
	// ErrDuplicatePlate signals that the plate number belongs to another vehicle.
	ErrDuplicatePlate = errors.New("account: plate number already exists")
	// ErrRoleAlreadySet signals a role completion on an account that already
	// moved past the unassigned state. Role transitions never run twice.
	ErrRoleAlreadySet = errors.New("account: role already assigned")
	// ErrNotPendingVerification signals a verification flip on a driver that
	// is not awaiting one.
	ErrNotPendingVerification = errors.New("account: driver is not pending verification")
	// ErrProfileNotFound signals a profile read for an account without one.
	ErrProfileNotFound = errors.New("account: profile not found")
)

// IsDuplicate reports whether err is any of the uniqueness violations.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicatePhone) ||
		errors.Is(err, ErrDuplicateLicense) ||
		errors.Is(err, ErrDuplicatePlate)
}
