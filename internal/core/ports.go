package core

import (
	"context"
)

// EmailSource exposes a read-only collection of email records
type EmailSource interface {
	// ListEmails returns all records in dataset order
	ListEmails(ctx context.Context) ([]EmailRecord, error)

	// GetEmail returns the record with the given id or ErrNotFound
	GetEmail(ctx context.Context, id string) (EmailRecord, error)

	// Diagnostics lists the rows rejected while loading
	Diagnostics() []RowError
}

// Generator produces reply text from a prompt. Implementations should honor
// the context deadline; a call still running past it is abandoned.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName identifies the backend in SuggestedReply.GeneratedBy
	ModelName() string
}

// ReplyStore persists processed emails keyed by email id
type ReplyStore interface {
	// Get retrieves a stored reply or ErrNotFound
	Get(ctx context.Context, emailID string) (*StoredReply, error)

	// Upsert stores an entry, keeping the status of an existing one
	Upsert(ctx context.Context, entry *StoredReply) error

	// SetStatus updates the status of a stored entry
	SetStatus(ctx context.Context, emailID string, status Status) error

	// Delete removes a stored entry
	Delete(ctx context.Context, emailID string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// PriorityChecker reports senders whose mail is always urgent
type PriorityChecker interface {
	IsPriority(sender string) bool
}

// KnowledgeRetriever returns reference excerpts relevant to a text
type KnowledgeRetriever interface {
	Retrieve(text string, k int) []Excerpt
}

// Excerpt is one knowledge base document matched for a prompt
type Excerpt struct {
	Source string
	Text   string
	Score  int
}
