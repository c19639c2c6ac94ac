package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ServiceOptions tunes the pipeline service
type ServiceOptions struct {
	// Workers bounds the number of emails processed concurrently
	Workers int
	// StoreTTL is how long stored replies are kept
	StoreTTL time.Duration
}

// AssistantService runs emails through classification and reply suggestion
type AssistantService struct {
	source     EmailSource
	classifier *IntentClassifier
	suggester  *ReplySuggester
	store      ReplyStore
	priority   PriorityChecker
	logger     *zap.Logger
	workers    int
	storeTTL   time.Duration
	now        func() time.Time
}

// NewAssistantService creates a new pipeline service. store and priority
// may be nil.
func NewAssistantService(
	source EmailSource,
	classifier *IntentClassifier,
	suggester *ReplySuggester,
	store ReplyStore,
	priority PriorityChecker,
	logger *zap.Logger,
	opts ServiceOptions,
) *AssistantService {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return &AssistantService{
		source:     source,
		classifier: classifier,
		suggester:  suggester,
		store:      store,
		priority:   priority,
		logger:     logger,
		workers:    workers,
		storeTTL:   opts.StoreTTL,
		now:        time.Now,
	}
}

// Source returns the email source backing the service
func (s *AssistantService) Source() EmailSource {
	return s.source
}

// HasStore reports whether processed emails are persisted
func (s *AssistantService) HasStore() bool {
	return s.store != nil
}

// ProcessAll processes every email of the source and returns the results in
// dataset order.
func (s *AssistantService) ProcessAll(ctx context.Context) ([]ProcessedEmail, error) {
	records, err := s.source.ListEmails(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ProcessedEmail, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.process(gctx, record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("Processed emails", zap.Int("count", len(results)))
	return results, nil
}

// Process processes a single email by id
func (s *AssistantService) Process(ctx context.Context, id string) (ProcessedEmail, error) {
	record, err := s.source.GetEmail(ctx, id)
	if err != nil {
		return ProcessedEmail{}, err
	}
	return s.process(ctx, record), nil
}

// SetStatus marks the suggestion for an email as resolved or pending
func (s *AssistantService) SetStatus(ctx context.Context, id string, status Status) error {
	if s.store == nil {
		return ErrStoreDisabled
	}
	// Processing first guarantees the entry exists.
	if _, err := s.Process(ctx, id); err != nil {
		return err
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("Updated reply status", zap.String("email_id", id), zap.String("status", string(status)))
	return nil
}

// MarkResolved flags the suggestion for an email as dealt with
func (s *AssistantService) MarkResolved(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, StatusResolved)
}

// MarkPending reopens a resolved suggestion
func (s *AssistantService) MarkPending(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, StatusPending)
}

func (s *AssistantService) process(ctx context.Context, record EmailRecord) ProcessedEmail {
	classification := s.classifier.Classify(record)

	if s.priority != nil && classification.Priority != PriorityUrgent && s.priority.IsPriority(record.SenderAddress()) {
		classification.Priority = PriorityUrgent
	}

	reply := s.suggester.SuggestReply(ctx, record, classification)

	result := ProcessedEmail{
		Email:          record,
		Classification: classification,
		Reply:          reply,
		Status:         StatusPending,
	}

	if s.store != nil {
		s.persist(ctx, &result)
	}

	return result
}

func (s *AssistantService) persist(ctx context.Context, result *ProcessedEmail) {
	existing, err := s.store.Get(ctx, result.Email.ID)
	switch {
	case err == nil:
		result.Status = existing.Status
	case !errors.Is(err, ErrNotFound):
		s.logger.Warn("Failed to read stored reply", zap.String("email_id", result.Email.ID), zap.Error(err))
	}

	now := s.now()
	entry := &StoredReply{
		EmailID:     result.Email.ID,
		Sender:      result.Email.Sender,
		Subject:     result.Email.Subject,
		ReceivedAt:  result.Email.ReceivedAt,
		IntentLabel: result.Classification.IntentLabel,
		Keywords:    result.Classification.Keywords,
		Sentiment:   result.Classification.Sentiment,
		Priority:    result.Classification.Priority,
		ReplyText:   result.Reply.Text,
		GeneratedBy: result.Reply.GeneratedBy,
		Status:      result.Status,
		ProcessedAt: now,
		ExpiresAt:   now.Add(s.storeTTL),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		s.logger.Error("Failed to store reply", zap.String("email_id", result.Email.ID), zap.Error(err))
	}
}

// SortByPriority returns a copy of items with urgent emails first, then
// newest first. Emails without a timestamp sort last within their group.
func SortByPriority(items []ProcessedEmail) []ProcessedEmail {
	sorted := make([]ProcessedEmail, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		au := a.Classification.Priority == PriorityUrgent
		bu := b.Classification.Priority == PriorityUrgent
		if au != bu {
			return au
		}
		return a.Email.ReceivedAt.After(b.Email.ReceivedAt)
	})
	return sorted
}
