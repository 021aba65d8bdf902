package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory is the user directory consumed by the registration state
// machine. Create and role-completion operations are transactional: they
// either fully commit (account plus profile) or fully roll back. Uniqueness
// of email, phone, license and plate is enforced by the directory itself so
// that concurrent writers racing on the same value resolve to one winner.
type Directory interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)

	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	LicenseExists(ctx context.Context, license string) (bool, error)
	PlateExists(ctx context.Context, plate string) (bool, error)

	CompleteDriver(ctx context.Context, accountID string, profile DriverProfile) (Account, error)
	CompletePassenger(ctx context.Context, accountID string, profile PassengerProfile) (Account, error)
	VerifyDriver(ctx context.Context, accountID string) (Account, error)

	GetDriverProfile(ctx context.Context, accountID string) (DriverProfile, error)
	GetPassengerProfile(ctx context.Context, accountID string) (PassengerProfile, error)
	ListAccounts(ctx context.Context, page, pageSize int) ([]Account, int, error)
}

// CreateAccountParams contains write parameters for base signup. New
// accounts always start in (unassigned, pending_role).
type CreateAccountParams struct {
	Email        string
	Phone        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// PGDirectory implements Directory backed by PostgreSQL.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewDirectory creates a PostgreSQL-backed user directory.
func NewDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

const accountColumns = `id, email, phone, password_hash, first_name, last_name, role, status, created_at, updated_at`

// CreateAccount inserts a new unassigned account. Email and phone collisions
// surface as ErrDuplicateEmail / ErrDuplicatePhone via the table's unique
// constraints.
func (d *PGDirectory) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	const insertSQL = `
		INSERT INTO accounts (email, phone, password_hash, first_name, last_name, role, status)
		VALUES ($1, $2, $3, $4, $5, 'unassigned', 'pending_role')
		RETURNING ` + accountColumns

	acct, err := scanAccount(d.pool.QueryRow(ctx, insertSQL,
		params.Email, params.Phone, params.PasswordHash, params.FirstName, params.LastName))
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return Account{}, dup
		}
		return Account{}, fmt.Errorf("account: create: %w", err)
	}

	return acct, nil
}

// GetByEmail retrieves an account by email address.
func (d *PGDirectory) GetByEmail(ctx context.Context, email string) (Account, error) {
	const selectSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	acct, err := scanAccount(d.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("account: get by email: %w", err)
	}

	return acct, nil
}

// GetByID retrieves an account by ID.
func (d *PGDirectory) GetByID(ctx context.Context, id string) (Account, error) {
	const selectSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(d.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("account: get by id: %w", err)
	}

	return acct, nil
}

func (d *PGDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (d *PGDirectory) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE phone = $1)`, phone)
}

func (d *PGDirectory) LicenseExists(ctx context.Context, license string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM driver_profiles WHERE license_number = $1)`, license)
}

func (d *PGDirectory) PlateExists(ctx context.Context, plate string) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM driver_profiles WHERE plate_number = $1)`, plate)
}

func (d *PGDirectory) exists(ctx context.Context, query, value string) (bool, error) {
	var found bool
	if err := d.pool.QueryRow(ctx, query, value).Scan(&found); err != nil {
		return false, fmt.Errorf("account: existence check: %w", err)
	}
	return found, nil
}

// CompleteDriver flips an unassigned account to (driver, pending_verification)
// and inserts its driver profile inside one transaction. The UPDATE's role
// guard makes the forward-only rule race-safe: a second completion for the
// same account matches zero rows. License and plate collisions abort the
// whole transaction, so no partial profile is ever persisted.
func (d *PGDirectory) CompleteDriver(ctx context.Context, accountID string, profile DriverProfile) (Account, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("account: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const flipSQL = `
		UPDATE accounts
		SET role = 'driver', status = 'pending_verification', updated_at = now()
		WHERE id = $1 AND role = 'unassigned'
		RETURNING ` + accountColumns

	acct, err := scanAccount(tx.QueryRow(ctx, flipSQL, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, d.flipConflict(ctx, accountID)
		}
		return Account{}, fmt.Errorf("account: flip driver role: %w", err)
	}

	const insertSQL = `
		INSERT INTO driver_profiles (
			account_id, license_number, license_type, license_expiry,
			vehicle_brand, vehicle_model, vehicle_color, vehicle_year,
			plate_number, seats_available,
			license_image_ref, vehicle_photo_ref, profile_photo_ref
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.Exec(ctx, insertSQL,
		accountID, profile.LicenseNumber, profile.LicenseType, profile.LicenseExpiry,
		profile.VehicleBrand, profile.VehicleModel, profile.VehicleColor, profile.VehicleYear,
		profile.PlateNumber, profile.SeatsAvailable,
		profile.LicenseImageRef, profile.VehiclePhotoRef, profile.ProfilePhotoRef)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return Account{}, dup
		}
		return Account{}, fmt.Errorf("account: insert driver profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, fmt.Errorf("account: commit driver completion: %w", err)
	}

	return acct, nil
}

// CompletePassenger flips an unassigned account to (passenger, active) and
// inserts its passenger profile inside one transaction.
func (d *PGDirectory) CompletePassenger(ctx context.Context, accountID string, profile PassengerProfile) (Account, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("account: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const flipSQL = `
		UPDATE accounts
		SET role = 'passenger', status = 'active', updated_at = now()
		WHERE id = $1 AND role = 'unassigned'
		RETURNING ` + accountColumns

	acct, err := scanAccount(tx.QueryRow(ctx, flipSQL, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, d.flipConflict(ctx, accountID)
		}
		return Account{}, fmt.Errorf("account: flip passenger role: %w", err)
	}

	const insertSQL = `
		INSERT INTO passenger_profiles (account_id, preferred_payment, profile_photo_ref)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertSQL, accountID, profile.PreferredPayment, profile.ProfilePhotoRef); err != nil {
		return Account{}, fmt.Errorf("account: insert passenger profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, fmt.Errorf("account: commit passenger completion: %w", err)
	}

	return acct, nil
}

// VerifyDriver marks a pending driver as active. This is the admin-surface
// action at the end of the driver lifecycle.
func (d *PGDirectory) VerifyDriver(ctx context.Context, accountID string) (Account, error) {
	const verifySQL = `
		UPDATE accounts
		SET status = 'active', updated_at = now()
		WHERE id = $1 AND role = 'driver' AND status = 'pending_verification'
		RETURNING ` + accountColumns

	acct, err := scanAccount(d.pool.QueryRow(ctx, verifySQL, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := d.GetByID(ctx, accountID); errors.Is(getErr, ErrNotFound) {
				return Account{}, ErrNotFound
			}
			return Account{}, ErrNotPendingVerification
		}
		return Account{}, fmt.Errorf("account: verify driver: %w", err)
	}

	return acct, nil
}

// GetDriverProfile retrieves the driver profile for an account.
func (d *PGDirectory) GetDriverProfile(ctx context.Context, accountID string) (DriverProfile, error) {
	const selectSQL = `
		SELECT account_id, license_number, license_type, license_expiry,
		       vehicle_brand, vehicle_model, vehicle_color, vehicle_year,
		       plate_number, seats_available,
		       license_image_ref, vehicle_photo_ref, profile_photo_ref, created_at
		FROM driver_profiles
		WHERE account_id = $1
	`

	var p DriverProfile
	err := d.pool.QueryRow(ctx, selectSQL, accountID).Scan(
		&p.AccountID, &p.LicenseNumber, &p.LicenseType, &p.LicenseExpiry,
		&p.VehicleBrand, &p.VehicleModel, &p.VehicleColor, &p.VehicleYear,
		&p.PlateNumber, &p.SeatsAvailable,
		&p.LicenseImageRef, &p.VehiclePhotoRef, &p.ProfilePhotoRef, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DriverProfile{}, ErrProfileNotFound
		}
		return DriverProfile{}, fmt.Errorf("account: get driver profile: %w", err)
	}

	return p, nil
}

// GetPassengerProfile retrieves the passenger profile for an account.
func (d *PGDirectory) GetPassengerProfile(ctx context.Context, accountID string) (PassengerProfile, error) {
	const selectSQL = `
		SELECT account_id, preferred_payment, profile_photo_ref, created_at
		FROM passenger_profiles
		WHERE account_id = $1
	`

	var p PassengerProfile
	err := d.pool.QueryRow(ctx, selectSQL, accountID).Scan(
		&p.AccountID, &p.PreferredPayment, &p.ProfilePhotoRef, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PassengerProfile{}, ErrProfileNotFound
		}
		return PassengerProfile{}, fmt.Errorf("account: get passenger profile: %w", err)
	}

	return p, nil
}

// ListAccounts returns a page of accounts newest-first plus the total count.
// Used by the admin surface.
func (d *PGDirectory) ListAccounts(ctx context.Context, page, pageSize int) ([]Account, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("account: count: %w", err)
	}

	const listSQL = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := d.pool.Query(ctx, listSQL, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("account: list: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("account: scan list row: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("account: list rows: %w", err)
	}

	return accounts, total, nil
}

// flipConflict distinguishes "account missing" from "role already set" after
// a zero-row role flip.
func (d *PGDirectory) flipConflict(ctx context.Context, accountID string) error {
	if _, err := d.GetByID(ctx, accountID); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return ErrRoleAlreadySet
}

// duplicateError maps a 23505 unique violation to the typed error for the
// violated constraint, or nil if err is not a unique violation.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "accounts_email_key":
		return ErrDuplicateEmail
	case "accounts_phone_key":
		return ErrDuplicatePhone
	case "driver_profiles_license_number_key":
		return ErrDuplicateLicense
	case "driver_profiles_plate_number_key":
		return ErrDuplicatePlate
	default:
		return fmt.Errorf("account: unique violation on %s: %w", pgErr.ConstraintName, err)
	}
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	err := row.Scan(
		&acct.ID,
		&acct.Email,
		&acct.Phone,
		&acct.PasswordHash,
		&acct.FirstName,
		&acct.LastName,
		&acct.Role,
		&acct.Status,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}
