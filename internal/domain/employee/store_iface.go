package employee

import "context"

// Allocator maps the highest numeric code suffix in use to the next code.
type Allocator func(maxNumber int) string

type StoreAPI interface {
	Insert(ctx context.Context, emp Employee, allocate Allocator) (Employee, error)
	GetByAccount(ctx context.Context, accountID int64) (Employee, error)
	ExistsForAccount(ctx context.Context, accountID int64) (bool, error)
	List(ctx context.Context, filter Filter) ([]Employee, error)
	Count(ctx context.Context) (int, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	PhoneTaken(ctx context.Context, phone string, exceptID int64) (bool, error)
	Update(ctx context.Context, emp Employee) (Employee, error)
	DeleteByAccount(ctx context.Context, accountID int64) (Employee, error)
	DeleteByID(ctx context.Context, employeeID, accountID int64) (Employee, error)
}
