package employee

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

var fieldLimits = map[string]int{
	"firstName":   100,
	"lastName":    100,
	"gender":      10,
	"phone":       15,
	"email":       50,
	"address":     100,
	"department":  50,
	"designation": 50,
}

func (v *validator) maxLen(field, value string) {
	if limit, ok := fieldLimits[field]; ok && utf8.RuneCountInString(value) > limit {
		v.add(field, "is too long")
	}
}

func (v *validator) email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "must be a valid email address")
	}
}

func trimCreate(in CreateInput) CreateInput {
	return CreateInput{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Gender:      strings.TrimSpace(in.Gender),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		Address:     strings.TrimSpace(in.Address),
		Department:  strings.TrimSpace(in.Department),
		Designation: strings.TrimSpace(in.Designation),
		JoiningDate: strings.TrimSpace(in.JoiningDate),
	}
}

func trimUpdate(in UpdateInput) UpdateInput {
	return UpdateInput{
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		Address:     strings.TrimSpace(in.Address),
		Department:  strings.TrimSpace(in.Department),
		Designation: strings.TrimSpace(in.Designation),
	}
}

func validateCreate(in CreateInput) (time.Time, error) {
	v := &validator{}
	fields := map[string]string{
		"firstName":   in.FirstName,
		"lastName":    in.LastName,
		"gender":      in.Gender,
		"phone":       in.Phone,
		"email":       in.Email,
		"address":     in.Address,
		"department":  in.Department,
		"designation": in.Designation,
		"joiningDate": in.JoiningDate,
	}
	for field, value := range fields {
		v.required(field, value)
		v.maxLen(field, value)
	}
	v.email("email", in.Email)

	var joining time.Time
	if in.JoiningDate != "" {
		parsed, err := time.Parse("2006-01-02", in.JoiningDate)
		if err != nil {
			v.add("joiningDate", "must be a valid date in YYYY-MM-DD format")
		} else {
			joining = parsed
		}
	}
	return joining, v.err()
}

func validateUpdate(in UpdateInput) error {
	v := &validator{}
	fields := map[string]string{
		"phone":       in.Phone,
		"email":       in.Email,
		"address":     in.Address,
		"department":  in.Department,
		"designation": in.Designation,
	}
	for field, value := range fields {
		v.required(field, value)
		v.maxLen(field, value)
	}
	v.email("email", in.Email)
	return v.err()
}

// Create stores the caller's single record and assigns it the next EMP code.
func (s *Service) Create(ctx context.Context, accountID int64, input CreateInput) (Employee, error) {
	exists, err := s.Store.ExistsForAccount(ctx, accountID)
	if err != nil {
		return Employee{}, err
	}
	if exists {
		return Employee{}, ErrAlreadyExists
	}

	in := trimCreate(input)
	joining, err := validateCreate(in)
	if err != nil {
		return Employee{}, err
	}
	if err := s.checkUnique(ctx, in.Email, in.Phone, 0); err != nil {
		return Employee{}, err
	}

	return s.Store.Insert(ctx, Employee{
		AccountID:   accountID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Gender:      in.Gender,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
		Department:  in.Department,
		Designation: in.Designation,
		JoiningDate: joining,
	}, NextCode)
}

func (s *Service) checkUnique(ctx context.Context, email, phone string, exceptID int64) error {
	taken, err := s.Store.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}
	taken, err = s.Store.PhoneTaken(ctx, phone, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicatePhone
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.Store.List(ctx, Filter{})
}

func (s *Service) Search(ctx context.Context, filter Filter) ([]Employee, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Department = strings.TrimSpace(filter.Department)
	filter.Designation = strings.TrimSpace(filter.Designation)
	return s.Store.List(ctx, filter)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.Store.Count(ctx)
}

func (s *Service) GetByAccount(ctx context.Context, accountID int64) (Employee, error) {
	return s.Store.GetByAccount(ctx, accountID)
}

// Update changes the caller's contact and placement fields. On any failure
// the stored record is left as it was.
func (s *Service) Update(ctx context.Context, accountID int64, input UpdateInput) (Employee, Employee, error) {
	current, err := s.Store.GetByAccount(ctx, accountID)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	in := trimUpdate(input)
	if err := validateUpdate(in); err != nil {
		return current, Employee{}, err
	}
	if err := s.checkUnique(ctx, in.Email, in.Phone, current.ID); err != nil {
		return current, Employee{}, err
	}

	next := current
	next.Phone = in.Phone
	next.Email = in.Email
	next.Address = in.Address
	next.Department = in.Department
	next.Designation = in.Designation
	updated, err := s.Store.Update(ctx, next)
	if errors.Is(err, ErrNotFound) {
		return current, Employee{}, ErrNotFound
	}
	return current, updated, err
}

func (s *Service) DeleteOwn(ctx context.Context, accountID int64) (Employee, error) {
	return s.Store.DeleteByAccount(ctx, accountID)
}

// DeleteByID removes the record only when it belongs to accountID.
func (s *Service) DeleteByID(ctx context.Context, accountID, employeeID int64) (Employee, error) {
	if employeeID <= 0 {
		return Employee{}, ErrNotFound
	}
	return s.Store.DeleteByID(ctx, employeeID, accountID)
}
