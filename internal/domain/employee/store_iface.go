package employee

import "context"

type Store interface {
	Create(ctx context.Context, e Employee) error
	Get(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	List(ctx context.Context, role Role) ([]Employee, error)
	Count(ctx context.Context, role Role) (int, error)
}
