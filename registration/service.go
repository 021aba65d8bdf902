// Package registration implements the account lifecycle state machine:
// base signup into the unassigned state, login, and the one-way role
// completion into driver or passenger. All format checks are aggregated per
// field; all persistence transitions are atomic against the user directory.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"campusride/account"
	"campusride/token"
	"campusride/validate"
)

// LicenseTypeProfessional is the only license type drivers may register
// with. Non-professional licenses are rejected at the transition guard.
const LicenseTypeProfessional = "Professional"

// Service orchestrates signup, login and role completion against the user
// directory.
type Service struct {
	dir    account.Directory
	tokens *token.Service
	now    func() time.Time
}

// NewService creates a registration service.
func NewService(dir account.Directory, tokens *token.Service) *Service {
	return &Service{
		dir:    dir,
		tokens: tokens,
		now:    time.Now,
	}
}

// AuthResult bundles the account and freshly issued token returned by
// signup and login.
type AuthResult struct {
	Account account.Account
	Token   string
	Claims  token.Claims
}

// Signup creates a new unassigned account. Every base field is validated
// before any storage is touched and all violations are reported together.
// Email and phone uniqueness is enforced atomically by the directory, so a
// duplicate aborts the whole signup with no partial account.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	v := NewValidationError()

	email, err := validate.Email(req.Email)
	if err != nil {
		v.Add("email", "must be a valid slu.edu.ph address")
	}
	phone, err := validate.Phone(req.Phone)
	if err != nil {
		v.Add("phone", "must be a valid Philippine mobile number")
	}
	for _, rule := range validate.Password(req.Password) {
		v.Add("password", rule)
	}
	if strings.TrimSpace(req.FirstName) == "" {
		v.Add("first_name", "is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		v.Add("last_name", "is required")
	}
	if err := v.ErrOrNil(); err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("registration: hash password: %w", err)
	}

	acct, err := s.dir.CreateAccount(ctx, account.CreateAccountParams{
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	})
	if err != nil {
		return AuthResult{}, err
	}

	return s.authResult(acct)
}

// Login authenticates by email and password and issues a token whose role
// claim is the account's stored role at this moment.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	acct, err := s.dir.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.authResult(acct)
}

// CompleteDriver runs the unassigned → driver transition. The guard is one
// atomic check: every field present and well-formed, license and plate
// unique, license type exactly Professional, and license expiry strictly
// later than the server clock at submission (full timestamp, not date-only).
// Any single violation aborts the entire transition; the directory
// transaction guarantees no partial driver profile is ever persisted.
//
// Tokens issued before this transition keep carrying the unassigned role
// until they expire; the system does not force reissuance.
func (s *Service) CompleteDriver(ctx context.Context, accountID string, app DriverApplication) (account.Account, error) {
	v := NewValidationError()

	license, err := validate.LicenseNumber(app.LicenseNumber)
	if err != nil {
		v.Add("license_number", "must match the format A12-34-567890")
	}
	if app.LicenseType == "" {
		v.Add("license_type", "is required")
	} else if app.LicenseType != LicenseTypeProfessional {
		v.Add("license_type", "must be Professional")
	}
	if app.LicenseExpiry.IsZero() {
		v.Add("license_expiry", "is required")
	} else if !app.LicenseExpiry.After(s.now()) {
		v.Add("license_expiry", "must be in the future")
	}
	plate, err := validate.PlateNumber(app.PlateNumber)
	if err != nil {
		v.Add("plate_number", "must match the format ABC-1234")
	}
	if strings.TrimSpace(app.VehicleBrand) == "" {
		v.Add("vehicle_brand", "is required")
	}
	if strings.TrimSpace(app.VehicleModel) == "" {
		v.Add("vehicle_model", "is required")
	}
	if strings.TrimSpace(app.VehicleColor) == "" {
		v.Add("vehicle_color", "is required")
	}
	if app.VehicleYear < 1950 || app.VehicleYear > s.now().Year()+1 {
		v.Add("vehicle_year", "is out of range")
	}
	if app.SeatsAvailable < 1 {
		v.Add("seats_available", "must be at least 1")
	}
	if app.LicenseImageRef == "" {
		v.Add("license_image", "is required")
	}
	if app.VehiclePhotoRef == "" {
		v.Add("vehicle_photo", "is required")
	}
	if app.ProfilePhotoRef == "" {
		v.Add("profile_photo", "is required")
	}
	if err := v.ErrOrNil(); err != nil {
		return account.Account{}, err
	}

	// Early duplicate checks give a cleaner failure before the transition
	// runs; the directory's transaction remains the arbiter under races.
	if taken, err := s.dir.LicenseExists(ctx, license); err != nil {
		return account.Account{}, err
	} else if taken {
		return account.Account{}, account.ErrDuplicateLicense
	}
	if taken, err := s.dir.PlateExists(ctx, plate); err != nil {
		return account.Account{}, err
	} else if taken {
		return account.Account{}, account.ErrDuplicatePlate
	}

	return s.dir.CompleteDriver(ctx, accountID, account.DriverProfile{
		AccountID:       accountID,
		LicenseNumber:   license,
		LicenseType:     app.LicenseType,
		LicenseExpiry:   app.LicenseExpiry,
		VehicleBrand:    strings.TrimSpace(app.VehicleBrand),
		VehicleModel:    strings.TrimSpace(app.VehicleModel),
		VehicleColor:    strings.TrimSpace(app.VehicleColor),
		VehicleYear:     app.VehicleYear,
		PlateNumber:     plate,
		SeatsAvailable:  app.SeatsAvailable,
		LicenseImageRef: app.LicenseImageRef,
		VehiclePhotoRef: app.VehiclePhotoRef,
		ProfilePhotoRef: app.ProfilePhotoRef,
	})
}

// CompletePassenger runs the unassigned → passenger transition. The guard
// only requires a payment preference and a profile photo reference.
func (s *Service) CompletePassenger(ctx context.Context, accountID string, app PassengerApplication) (account.Account, error) {
	v := NewValidationError()
	if strings.TrimSpace(app.PreferredPayment) == "" {
		v.Add("preferred_payment", "is required")
	}
	if app.ProfilePhotoRef == "" {
		v.Add("profile_photo", "is required")
	}
	if err := v.ErrOrNil(); err != nil {
		return account.Account{}, err
	}

	return s.dir.CompletePassenger(ctx, accountID, account.PassengerProfile{
		AccountID:        accountID,
		PreferredPayment: strings.TrimSpace(app.PreferredPayment),
		ProfilePhotoRef:  app.ProfilePhotoRef,
	})
}

func (s *Service) authResult(acct account.Account) (AuthResult, error) {
	claims := token.Claims{
		UserID:    acct.ID,
		Role:      acct.Role,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
	}
	signed, err := s.tokens.Issue(claims)
	if err != nil {
		return AuthResult{}, fmt.Errorf("registration: issue token: %w", err)
	}
	return AuthResult{Account: acct, Token: signed, Claims: claims}, nil
}
