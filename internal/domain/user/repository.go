package user

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// ListTrainees returns trainees supervised by supervisorID; an empty
	// supervisorID lists every trainee.
	ListTrainees(ctx context.Context, supervisorID string) ([]User, error)
}
