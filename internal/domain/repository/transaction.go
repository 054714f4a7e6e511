package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a
// specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances that are bound to a specific
// transaction, so that all operations inside one Execute callback share a
// single database connection.
type RepositoryFactory interface {
	// AccountRepo returns an AccountRepository bound to the current transaction.
	AccountRepo() AccountRepository

	// OrganizationRepo returns an OrganizationRepository bound to the current transaction.
	OrganizationRepo() OrganizationRepository

	// RefreshTokenRepo returns a RefreshTokenRepository bound to the current transaction.
	RefreshTokenRepo() RefreshTokenRepository

	// TenderRepo returns a TenderRepository bound to the current transaction.
	TenderRepo() TenderRepository

	// BidRepo returns a BidRepository bound to the current transaction.
	BidRepo() BidRepository
}
