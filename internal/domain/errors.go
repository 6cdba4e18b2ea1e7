package domain

// errors.go defines domain-specific error types.
type domainErr struct {
	message string
}

// Error returns the error message.
func (e domainErr) Error() string {
	return e.message
}

// NotFoundErr represents an error when a requested entity is not found.
type NotFoundErr struct {
	domainErr
}

// NewNotFoundErr creates a new NotFoundErr with the given message.
func NewNotFoundErr(message string) *NotFoundErr {
	return &NotFoundErr{
		domainErr: domainErr{message: message},
	}
}

// ValidationErr represents an error when validation fails.
type ValidationErr struct {
	domainErr
}

// NewValidationErr creates a new ValidationErr with the given message.
func NewValidationErr(message string) *ValidationErr {
	return &ValidationErr{
		domainErr: domainErr{message: message},
	}
}

// StageOrderErr represents a client error where a recognition stage is
// invoked out of order (e.g. match before recognize).
type StageOrderErr struct {
	domainErr
}

// NewStageOrderErr creates a new StageOrderErr with the given message.
func NewStageOrderErr(message string) *StageOrderErr {
	return &StageOrderErr{
		domainErr: domainErr{message: message},
	}
}

// ConflictErr represents an error where two callers try to mutate the same
// resource at the same time; the losing caller receives it.
type ConflictErr struct {
	domainErr
}

// NewConflictErr creates a new ConflictErr with the given message.
func NewConflictErr(message string) *ConflictErr {
	return &ConflictErr{
		domainErr: domainErr{message: message},
	}
}
