package user

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrTraineeNotFound          = errors.New("trainee not found")
	ErrNotATrainee              = errors.New("user is not an OJT trainee")
	ErrTraineeAccessRequired    = errors.New("OJT trainee access required")
	ErrSupervisorAccessRequired = errors.New("OJT supervisor access required")
	ErrInsufficientPermissions  = errors.New("insufficient permissions")
	ErrNotYourTrainee           = errors.New("trainee is not supervised by you")
)
