package testfixtures

import (
	"context"
	"time"

	"empdesk/internal/domain/auth"
	"empdesk/internal/domain/employee"
	"empdesk/internal/domain/notifications"
	"empdesk/internal/domain/support"
)

const (
	JWTSecret  = "test-secret"
	AdminEmail = "admin@empdesk.test"
	FromEmail  = "no-reply@empdesk.test"
)

// Services wires every domain service to in-memory stores and a recording mailer.
type Services struct {
	AuthStore     *AuthStore
	EmployeeStore *EmployeeStore
	SupportStore  *SupportStore
	Mailer        *Mailer
	Audit         *AuditTrail
	Notify        *notifications.Dispatcher
	Auth          *auth.Service
	Employees     *employee.Service
	Support       *support.Service
}

func NewServices() *Services {
	svc := &Services{
		AuthStore:     NewAuthStore(),
		EmployeeStore: NewEmployeeStore(),
		Mailer:        &Mailer{},
		Audit:         &AuditTrail{},
	}
	svc.SupportStore = NewSupportStore(func(accountID int64) (string, string) {
		ctx := context.Background()
		var email, firstName string
		if account, err := svc.AuthStore.AccountByID(ctx, accountID); err == nil {
			email = account.Email
		}
		if rec, err := svc.EmployeeStore.GetByAccount(ctx, accountID); err == nil {
			firstName = rec.FirstName
		}
		return email, firstName
	})
	svc.Notify = notifications.New(svc.Mailer, FromEmail, AdminEmail)
	svc.Auth = auth.NewService(svc.AuthStore, svc.Notify, JWTSecret, time.Hour)
	svc.Employees = employee.NewService(svc.EmployeeStore)
	svc.Support = support.NewService(svc.SupportStore, svc.Notify)
	return svc
}

// ApprovedAccount registers an account through the real hashing path and
// approves it without sending mail.
func (s *Services) ApprovedAccount(email, password string, isAdmin bool) auth.Account {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return s.AuthStore.AddAccount(auth.Account{
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		IsAdmin:      isAdmin,
		HasProfile:   true,
		Approved:     true,
	})
}

// Login returns a bearer token for an approved account.
func (s *Services) Login(email, password string) string {
	session, err := s.Auth.Login(context.Background(), email, password)
	if err != nil {
		panic(err)
	}
	return session.Token
}

// SampleEmployee returns valid create input with unique contact fields.
func SampleEmployee(suffix string) employee.CreateInput {
	return employee.CreateInput{
		FirstName:   "Ann",
		LastName:    "Lee" + suffix,
		Gender:      "Female",
		Phone:       "555-01" + suffix,
		Email:       "ann" + suffix + "@corp.example.com",
		Address:     "1 Main St",
		Department:  "Operations",
		Designation: "Analyst",
		JoiningDate: "2024-01-15",
	}
}
