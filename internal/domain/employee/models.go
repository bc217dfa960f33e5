package employee

import "time"

type Employee struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"accountId"`
	Code        string    `json:"empCode"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	JoiningDate time.Time `json:"joiningDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type CreateInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	JoiningDate string `json:"joiningDate"`
}

// UpdateInput holds the only fields an owner may change after creation.
type UpdateInput struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

type Filter struct {
	Query       string
	Department  string
	Designation string
}
