package domain

import "context"

// UnitOfWork groups repository access so multi-repository writes share one
// transaction when run through Execute.
type UnitOfWork interface {
	// Execute runs fn inside a transaction; repositories obtained from the
	// UnitOfWork handed to fn share that transaction.
	Execute(ctx context.Context, fn func(uow UnitOfWork) error) error
	// Catalog returns the catalog lookup repository.
	Catalog() CatalogRepository
	// Imports returns the import batch repository.
	Imports() ImportRepository
	// Outbox returns the outbox repository.
	Outbox() OutboxRepository
	// Activity returns the activity repository.
	Activity() ActivityRepository
}
