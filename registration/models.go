package registration

import "time"

// SignupRequest contains the base signup fields. Every account starts
// unassigned; the role is picked later through role completion.
type SignupRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DriverApplication carries the driver role-completion payload. The image
// fields are document-store references, not raw bytes; the HTTP layer
// uploads payloads first and submits the resulting references here.
type DriverApplication struct {
	LicenseNumber   string    `json:"license_number"`
	LicenseType     string    `json:"license_type"`
	LicenseExpiry   time.Time `json:"license_expiry"`
	VehicleBrand    string    `json:"vehicle_brand"`
	VehicleModel    string    `json:"vehicle_model"`
	VehicleColor    string    `json:"vehicle_color"`
	VehicleYear     int       `json:"vehicle_year"`
	PlateNumber     string    `json:"plate_number"`
	SeatsAvailable  int       `json:"seats_available"`
	LicenseImageRef string    `json:"license_image"`
	VehiclePhotoRef string    `json:"vehicle_photo"`
	ProfilePhotoRef string    `json:"profile_photo"`
}

// PassengerApplication carries the passenger role-completion payload.
type PassengerApplication struct {
	PreferredPayment string `json:"preferred_payment"`
	ProfilePhotoRef  string `json:"profile_photo"`
}
