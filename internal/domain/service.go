package domain

import "context"

// CorpusRepository defines the interface for corpus persistence.
// The only writers are the bootstrap operations, which must run inside a transaction.
type CorpusRepository interface {
	// LockCorpus takes an exclusive lock on the corpus for the current transaction.
	LockCorpus(ctx context.Context) error

	// CountCompanies returns the number of companies currently stored.
	CountCompanies(ctx context.Context) (int, error)

	// ClearCorpus removes every company and quiz.
	ClearCorpus(ctx context.Context) error

	// InsertCompanies persists companies with their embedded quizzes, in order.
	InsertCompanies(ctx context.Context, companies []*Company) error

	// FindCandidates returns companies whose company tags or quiz tags intersect tagsLower,
	// or whose quiz text matches the space-joined tags, with all of their quizzes loaded.
	FindCandidates(ctx context.Context, tagsLower []string) ([]*Company, error)
}

// TransactionManager runs fn inside a transaction carried by the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
