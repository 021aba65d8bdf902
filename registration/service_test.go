package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"campusride/account"
	"campusride/token"
)

func newTestService() (*Service, *fakeDirectory) {
	dir := newFakeDirectory()
	svc := NewService(dir, token.NewService(token.Config{Secret: "test-secret", TTL: time.Hour}))
	return svc, dir
}

func validSignup() SignupRequest {
	return SignupRequest{
		Email:     "juan.delacruz@slu.edu.ph",
		Phone:     "09171234567",
		Password:  "Str0ng!pass",
		FirstName: "Juan",
		LastName:  "Dela Cruz",
	}
}

func validDriverApplication() DriverApplication {
	return DriverApplication{
		LicenseNumber:   "A12-34-567890",
		LicenseType:     LicenseTypeProfessional,
		LicenseExpiry:   time.Now().Add(365 * 24 * time.Hour),
		VehicleBrand:    "Toyota",
		VehicleModel:    "Vios",
		VehicleColor:    "Silver",
		VehicleYear:     2021,
		PlateNumber:     "ABC-1234",
		SeatsAvailable:  3,
		LicenseImageRef: "sha256:lic",
		VehiclePhotoRef: "sha256:veh",
		ProfilePhotoRef: "sha256:pro",
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if res.Account.Role != account.RoleUnassigned {
		t.Fatalf("expected unassigned role, got %s", res.Account.Role)
	}
	if res.Account.Status != account.StatusPendingRole {
		t.Fatalf("expected pending_role status, got %s", res.Account.Status)
	}
	if res.Token == "" {
		t.Fatal("expected token after signup")
	}

	login, err := svc.Login(ctx, LoginRequest{Email: "Juan.DelaCruz@slu.edu.ph", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Account.ID != res.Account.ID {
		t.Fatalf("login returned a different account: %q vs %q", login.Account.ID, res.Account.ID)
	}
	if login.Claims.Role != account.RoleUnassigned {
		t.Fatalf("token role should match stored role, got %s", login.Claims.Role)
	}
}

func TestSignupAggregatesAllViolations(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "juan@gmail.com",
		Phone:    "12345",
		Password: "abc",
	})

	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "phone", "password", "first_name", "last_name"} {
		if len(v.Fields[field]) == 0 {
			t.Fatalf("expected violation for %s, got %v", field, v.Fields)
		}
	}
	// Password violations are reported in full, not just the first.
	if len(v.Fields["password"]) < 4 {
		t.Fatalf("expected all password rules reported, got %v", v.Fields["password"])
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	req := validSignup()
	req.Phone = "09998887766"
	if _, err := svc.Signup(ctx, req); !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSignupDuplicatePhone(t *testing.T) {
	svc, dir := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	req := validSignup()
	req.Email = "maria.santos@slu.edu.ph"
	if _, err := svc.Signup(ctx, req); !errors.Is(err, account.ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
	if len(dir.accounts) != 1 {
		t.Fatalf("expected no partial account, directory holds %d", len(dir.accounts))
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginRequest{Email: "ghost@slu.edu.ph", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if _, err := svc.Signup(ctx, validSignup()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: validSignup().Email, Password: "Wr0ng!pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestCompleteDriver(t *testing.T) {
	svc, dir := newTestService()
	ctx := context.Background()

	res, err := svc.Signup(ctx, validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	acct, err := svc.CompleteDriver(ctx, res.Account.ID, validDriverApplication())
	if err != nil {
		t.Fatalf("complete driver: %v", err)
	}
	if acct.Role != account.RoleDriver {
		t.Fatalf("expected driver role, got %s", acct.Role)
	}
	if acct.Status != account.StatusPendingVerification {
		t.Fatalf("expected pending_verification status, got %s", acct.Status)
	}
	if _, ok := dir.driverProfiles[acct.ID]; !ok {
		t.Fatal("expected driver profile created with the transition")
	}
}

func TestCompleteDriverLowercasePlateNormalized(t *testing.T) {
	svc, dir := newTestService()
	ctx := context.Background()

	res, _ := svc.Signup(ctx, validSignup())
	app := validDriverApplication()
	app.PlateNumber = "abc-1234"

	acct, err := svc.CompleteDriver(ctx, res.Account.ID, app)
	if err != nil {
		t.Fatalf("complete driver: %v", err)
	}
	if got := dir.driverProfiles[acct.ID].PlateNumber; got != "ABC-1234" {
		t.Fatalf("expected canonical plate ABC-1234, got %q", got)
	}
}

func TestCompleteDriverAggregatesViolations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Signup(ctx, validSignup())

	_, err := svc.CompleteDriver(ctx, res.Account.ID, DriverApplication{
		LicenseNumber: "bogus",
		LicenseType:   "Non-Professional",
		PlateNumber:   "AB1234",
	})

	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{
		"license_number", "license_type", "license_expiry", "plate_number",
		"vehicle_brand", "vehicle_model", "vehicle_color", "vehicle_year",
		"seats_available", "license_image", "vehicle_photo", "profile_photo",
	} {
		if len(v.Fields[field]) == 0 {
			t.Fatalf("expected violation for %s, got %v", field, v.Fields)
		}
	}
}

func TestCompleteDriverExpiryIsTimestampNotDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Freeze the clock at noon; an expiry "today" at 08:00 is already past
	// even though the calendar date matches.
	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return noon }

	res, _ := svc.Signup(ctx, validSignup())
	app := validDriverApplication()
	app.LicenseExpiry = time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	_, err := svc.CompleteDriver(ctx, res.Account.ID, app)
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(v.Fields["license_expiry"]) == 0 {
		t.Fatalf("expected license_expiry violation, got %v", v.Fields)
	}

	// A second later the same day is accepted.
	app.LicenseExpiry = noon.Add(time.Second)
	if _, err := svc.CompleteDriver(ctx, res.Account.ID, app); err != nil {
		t.Fatalf("expected future timestamp to pass, got %v", err)
	}
}

func TestCompleteDriverDuplicatePlate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Signup(ctx, validSignup())
	if _, err := svc.CompleteDriver(ctx, first.Account.ID, validDriverApplication()); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	second, err := svc.Signup(ctx, SignupRequest{
		Email:     "maria.santos@slu.edu.ph",
		Phone:     "09998887766",
		Password:  "Str0ng!pass",
		FirstName: "Maria",
		LastName:  "Santos",
	})
	if err != nil {
		t.Fatalf("second signup: %v", err)
	}

	app := validDriverApplication()
	app.LicenseNumber = "B98-76-543210"
	if _, err := svc.CompleteDriver(ctx, second.Account.ID, app); !errors.Is(err, account.ErrDuplicatePlate) {
		t.Fatalf("expected ErrDuplicatePlate, got %v", err)
	}
}

func TestCompleteDriverRoleAlreadySet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Signup(ctx, validSignup())
	if _, err := svc.CompleteDriver(ctx, res.Account.ID, validDriverApplication()); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	app := validDriverApplication()
	app.LicenseNumber = "C11-22-334455"
	app.PlateNumber = "XYZ-9876"
	if _, err := svc.CompleteDriver(ctx, res.Account.ID, app); !errors.Is(err, account.ErrRoleAlreadySet) {
		t.Fatalf("expected ErrRoleAlreadySet, got %v", err)
	}
}

func TestCompletePassenger(t *testing.T) {
	svc, dir := newTestService()
	ctx := context.Background()

	res, _ := svc.Signup(ctx, validSignup())

	acct, err := svc.CompletePassenger(ctx, res.Account.ID, PassengerApplication{
		PreferredPayment: "gcash",
		ProfilePhotoRef:  "sha256:pro",
	})
	if err != nil {
		t.Fatalf("complete passenger: %v", err)
	}
	if acct.Role != account.RolePassenger || acct.Status != account.StatusActive {
		t.Fatalf("expected (passenger, active), got (%s, %s)", acct.Role, acct.Status)
	}
	if _, ok := dir.passengerProfiles[acct.ID]; !ok {
		t.Fatal("expected passenger profile created with the transition")
	}
}

func TestCompletePassengerMissingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Signup(ctx, validSignup())

	_, err := svc.CompletePassenger(ctx, res.Account.ID, PassengerApplication{})
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(v.Fields["preferred_payment"]) == 0 || len(v.Fields["profile_photo"]) == 0 {
		t.Fatalf("expected both fields reported, got %v", v.Fields)
	}
}

// fakeDirectory is an in-memory Directory enforcing the same uniqueness and
// forward-only role rules as the Postgres implementation.
type fakeDirectory struct {
	accounts          map[string]account.Account
	byEmail           map[string]string
	byPhone           map[string]string
	driverProfiles    map[string]account.DriverProfile
	passengerProfiles map[string]account.PassengerProfile
	nextID            int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		accounts:          make(map[string]account.Account),
		byEmail:           make(map[string]string),
		byPhone:           make(map[string]string),
		driverProfiles:    make(map[string]account.DriverProfile),
		passengerProfiles: make(map[string]account.PassengerProfile),
		nextID:            1,
	}
}

func (f *fakeDirectory) CreateAccount(ctx context.Context, params account.CreateAccountParams) (account.Account, error) {
	if _, exists := f.byEmail[strings.ToLower(params.Email)]; exists {
		return account.Account{}, account.ErrDuplicateEmail
	}
	if _, exists := f.byPhone[params.Phone]; exists {
		return account.Account{}, account.ErrDuplicatePhone
	}

	id := fmt.Sprintf("acct-%d", f.nextID)
	f.nextID++
	acct := account.Account{
		ID:           id,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         account.RoleUnassigned,
		Status:       account.StatusPendingRole,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.accounts[id] = acct
	f.byEmail[strings.ToLower(acct.Email)] = id
	f.byPhone[acct.Phone] = id
	return acct, nil
}

func (f *fakeDirectory) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return f.accounts[id], nil
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (account.Account, error) {
	acct, ok := f.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (f *fakeDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := f.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (f *fakeDirectory) PhoneExists(ctx context.Context, phone string) (bool, error) {
	_, ok := f.byPhone[phone]
	return ok, nil
}

func (f *fakeDirectory) LicenseExists(ctx context.Context, license string) (bool, error) {
	for _, p := range f.driverProfiles {
		if p.LicenseNumber == license {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) PlateExists(ctx context.Context, plate string) (bool, error) {
	for _, p := range f.driverProfiles {
		if p.PlateNumber == plate {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) CompleteDriver(ctx context.Context, accountID string, profile account.DriverProfile) (account.Account, error) {
	acct, ok := f.accounts[accountID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.Role != account.RoleUnassigned {
		return account.Account{}, account.ErrRoleAlreadySet
	}
	for _, p := range f.driverProfiles {
		if p.LicenseNumber == profile.LicenseNumber {
			return account.Account{}, account.ErrDuplicateLicense
		}
		if p.PlateNumber == profile.PlateNumber {
			return account.Account{}, account.ErrDuplicatePlate
		}
	}

	acct.Role = account.RoleDriver
	acct.Status = account.StatusPendingVerification
	acct.UpdatedAt = time.Now().UTC()
	f.accounts[accountID] = acct
	profile.AccountID = accountID
	f.driverProfiles[accountID] = profile
	return acct, nil
}

func (f *fakeDirectory) CompletePassenger(ctx context.Context, accountID string, profile account.PassengerProfile) (account.Account, error) {
	acct, ok := f.accounts[accountID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.Role != account.RoleUnassigned {
		return account.Account{}, account.ErrRoleAlreadySet
	}

	acct.Role = account.RolePassenger
	acct.Status = account.StatusActive
	acct.UpdatedAt = time.Now().UTC()
	f.accounts[accountID] = acct
	profile.AccountID = accountID
	f.passengerProfiles[accountID] = profile
	return acct, nil
}

func (f *fakeDirectory) VerifyDriver(ctx context.Context, accountID string) (account.Account, error) {
	acct, ok := f.accounts[accountID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.Role != account.RoleDriver || acct.Status != account.StatusPendingVerification {
		return account.Account{}, account.ErrNotPendingVerification
	}
	acct.Status = account.StatusActive
	f.accounts[accountID] = acct
	return acct, nil
}

func (f *fakeDirectory) GetDriverProfile(ctx context.Context, accountID string) (account.DriverProfile, error) {
	p, ok := f.driverProfiles[accountID]
	if !ok {
		return account.DriverProfile{}, account.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeDirectory) GetPassengerProfile(ctx context.Context, accountID string) (account.PassengerProfile, error) {
	p, ok := f.passengerProfiles[accountID]
	if !ok {
		return account.PassengerProfile{}, account.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeDirectory) ListAccounts(ctx context.Context, page, pageSize int) ([]account.Account, int, error) {
	var out []account.Account
	for _, acct := range f.accounts {
		out = append(out, acct)
	}
	return out, len(out), nil
}
