package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"empdesk/internal/domain/employee"
)

// EmployeeStore is an in-memory employee.StoreAPI.
type EmployeeStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]employee.Employee
}

func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{records: map[int64]employee.Employee{}}
}

func (s *EmployeeStore) taken(email, phone string, exceptID int64) error {
	for _, rec := range s.records {
		if rec.ID == exceptID {
			continue
		}
		if strings.EqualFold(rec.Email, email) {
			return employee.ErrDuplicateEmail
		}
		if rec.Phone == phone {
			return employee.ErrDuplicatePhone
		}
	}
	return nil
}

func (s *EmployeeStore) Insert(_ context.Context, emp employee.Employee, allocate employee.Allocator) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxNumber := 0
	for _, rec := range s.records {
		if rec.AccountID == emp.AccountID {
			return employee.Employee{}, employee.ErrAlreadyExists
		}
		if n := employee.ParseCodeNumber(rec.Code); n > maxNumber {
			maxNumber = n
		}
	}
	if err := s.taken(emp.Email, emp.Phone, 0); err != nil {
		return employee.Employee{}, err
	}

	s.nextID++
	now := time.Now()
	emp.ID = s.nextID
	emp.Code = allocate(maxNumber)
	emp.CreatedAt = now
	emp.UpdatedAt = now
	s.records[emp.ID] = emp
	return emp, nil
}

// Put stores a record as-is, including its code.
func (s *EmployeeStore) Put(emp employee.Employee) employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	emp.ID = s.nextID
	s.records[emp.ID] = emp
	return emp
}

func (s *EmployeeStore) GetByAccount(_ context.Context, accountID int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.AccountID == accountID {
			return rec, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (s *EmployeeStore) ExistsForAccount(ctx context.Context, accountID int64) (bool, error) {
	_, err := s.GetByAccount(ctx, accountID)
	return err == nil, nil
}

func matchesEmployee(rec employee.Employee, filter employee.Filter) bool {
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		found := false
		for _, field := range []string{rec.FirstName, rec.LastName, rec.Email, rec.Department, rec.Designation, rec.Code} {
			if strings.Contains(strings.ToLower(field), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Department != "" && !strings.EqualFold(rec.Department, filter.Department) {
		return false
	}
	if filter.Designation != "" && !strings.EqualFold(rec.Designation, filter.Designation) {
		return false
	}
	return true
}

func (s *EmployeeStore) List(_ context.Context, filter employee.Filter) ([]employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []employee.Employee
	for _, rec := range s.records {
		if matchesEmployee(rec, filter) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Code) != len(out[j].Code) {
			return len(out[i].Code) < len(out[j].Code)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *EmployeeStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

func (s *EmployeeStore) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID != exceptID && strings.EqualFold(rec.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *EmployeeStore) PhoneTaken(_ context.Context, phone string, exceptID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID != exceptID && rec.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (s *EmployeeStore) Update(_ context.Context, emp employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[emp.ID]
	if !ok || current.AccountID != emp.AccountID {
		return employee.Employee{}, employee.ErrNotFound
	}
	if err := s.taken(emp.Email, emp.Phone, emp.ID); err != nil {
		return employee.Employee{}, err
	}
	current.Phone = emp.Phone
	current.Email = emp.Email
	current.Address = emp.Address
	current.Department = emp.Department
	current.Designation = emp.Designation
	current.UpdatedAt = time.Now()
	s.records[emp.ID] = current
	return current, nil
}

func (s *EmployeeStore) DeleteByAccount(_ context.Context, accountID int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if rec.AccountID == accountID {
			delete(s.records, id)
			return rec, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (s *EmployeeStore) DeleteByID(_ context.Context, employeeID, accountID int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[employeeID]
	if !ok || rec.AccountID != accountID {
		return employee.Employee{}, employee.ErrNotFound
	}
	delete(s.records, employeeID)
	return rec, nil
}
