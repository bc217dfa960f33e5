package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// allocationLockKey serialises code allocation across concurrent inserts.
const allocationLockKey int64 = 0x454d50

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, account_id, emp_code, first_name, last_name, gender, phone, email,
    address, department, designation, joining_date, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var out Employee
	err := row.Scan(&out.ID, &out.AccountID, &out.Code, &out.FirstName, &out.LastName, &out.Gender,
		&out.Phone, &out.Email, &out.Address, &out.Department, &out.Designation, &out.JoiningDate,
		&out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return out, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "employees_email_key":
		return ErrDuplicateEmail
	case "employees_phone_key":
		return ErrDuplicatePhone
	case "employees_account_id_key":
		return ErrAlreadyExists
	}
	return err
}

// Insert allocates the next code and stores the record in one transaction,
// holding an advisory lock so concurrent inserts cannot pick the same code.
func (s *Store) Insert(ctx context.Context, emp Employee, allocate Allocator) (Employee, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Employee{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", allocationLockKey); err != nil {
		return Employee{}, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE account_id = $1)", emp.AccountID).Scan(&exists); err != nil {
		return Employee{}, err
	}
	if exists {
		return Employee{}, ErrAlreadyExists
	}

	var maxNumber int
	if err := tx.QueryRow(ctx, `
    SELECT COALESCE(MAX(CAST(SUBSTRING(emp_code FROM 4) AS INTEGER)), 0)
    FROM employees
    WHERE emp_code ~ '^EMP[0-9]{1,9}$'
  `).Scan(&maxNumber); err != nil {
		return Employee{}, err
	}
	emp.Code = allocate(maxNumber)

	out, err := scanEmployee(tx.QueryRow(ctx, `
    INSERT INTO employees (account_id, emp_code, first_name, last_name, gender, phone, email,
      address, department, designation, joining_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING `+employeeColumns,
		emp.AccountID, emp.Code, emp.FirstName, emp.LastName, emp.Gender, emp.Phone, emp.Email,
		emp.Address, emp.Department, emp.Designation, emp.JoiningDate))
	if err != nil {
		return Employee{}, mapUniqueViolation(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Employee{}, mapUniqueViolation(err)
	}
	return out, nil
}

func (s *Store) GetByAccount(ctx context.Context, accountID int64) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE account_id = $1", accountID))
}

func (s *Store) ExistsForAccount(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE account_id = $1)", accountID).Scan(&exists)
	return exists, err
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE 1 = 1"
	var args []any
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d
      OR department ILIKE $%d OR designation ILIKE $%d OR emp_code ILIKE $%d)`, n, n, n, n, n, n)
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		query += fmt.Sprintf(" AND lower(department) = lower($%d)", len(args))
	}
	if filter.Designation != "" {
		args = append(args, filter.Designation)
		query += fmt.Sprintf(" AND lower(designation) = lower($%d)", len(args))
	}
	query += " ORDER BY length(emp_code), emp_code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees").Scan(&total)
	return total, err
}

func (s *Store) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE lower(email) = lower($1) AND id <> $2)", email, exceptID).Scan(&taken)
	return taken, err
}

func (s *Store) PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE phone = $1 AND id <> $2)", phone, exceptID).Scan(&taken)
	return taken, err
}

func (s *Store) Update(ctx context.Context, emp Employee) (Employee, error) {
	out, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET phone = $1, email = $2, address = $3, department = $4, designation = $5, updated_at = now()
    WHERE id = $6 AND account_id = $7
    RETURNING `+employeeColumns,
		emp.Phone, emp.Email, emp.Address, emp.Department, emp.Designation, emp.ID, emp.AccountID))
	if err != nil {
		return Employee{}, mapUniqueViolation(err)
	}
	return out, nil
}

func (s *Store) DeleteByAccount(ctx context.Context, accountID int64) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "DELETE FROM employees WHERE account_id = $1 RETURNING "+employeeColumns, accountID))
}

func (s *Store) DeleteByID(ctx context.Context, employeeID, accountID int64) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "DELETE FROM employees WHERE id = $1 AND account_id = $2 RETURNING "+employeeColumns, employeeID, accountID))
}
