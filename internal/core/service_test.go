package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	records []EmailRecord
	err     error
}

func (s *fakeSource) ListEmails(ctx context.Context) ([]EmailRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]EmailRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *fakeSource) GetEmail(ctx context.Context, id string) (EmailRecord, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return EmailRecord{}, ErrNotFound
}

func (s *fakeSource) Diagnostics() []RowError {
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*StoredReply
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*StoredReply)}
}

func (s *fakeStore) Get(ctx context.Context, emailID string) (*StoredReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[emailID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Upsert(ctx context.Context, entry *StoredReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	cp := *entry
	if existing, ok := s.entries[entry.EmailID]; ok {
		cp.Status = existing.Status
	}
	s.entries[entry.EmailID] = &cp
	return nil
}

func (s *fakeStore) SetStatus(ctx context.Context, emailID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[emailID]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, emailID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, emailID)
	return nil
}

func (s *fakeStore) Cleanup(ctx context.Context) error {
	return nil
}

type domainChecker string

func (d domainChecker) IsPriority(sender string) bool {
	return strings.HasSuffix(sender, "@"+string(d))
}

func sampleRecords() []EmailRecord {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []EmailRecord{
		{ID: "1", Sender: "jane@example.com", Subject: "Refund please", Body: "I want a refund and to cancel my order", ReceivedAt: base},
		{ID: "2", Sender: "bob@example.com", Subject: "Pricing question", Body: "What is the quote for 10 units?", ReceivedAt: base.Add(time.Hour)},
		{ID: "3", Sender: "ceo@bigcorp.com", Subject: "Hello", Body: "Just saying hi", ReceivedAt: base.Add(2 * time.Hour)},
		{ID: "4", Sender: "amy@example.com", Subject: "URGENT", Body: "Please reset my access asap"},
	}
}

func newTestService(source EmailSource, store ReplyStore, priority PriorityChecker, workers int) *AssistantService {
	logger := zap.NewNop()
	classifier := NewIntentClassifier(testClassifierConfig())
	suggester := NewReplySuggester(testSuggesterConfig(), nil, nil, logger)
	return NewAssistantService(source, classifier, suggester, store, priority, logger,
		ServiceOptions{Workers: workers, StoreTTL: time.Hour})
}

func TestProcessAllKeepsDatasetOrder(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil, nil, 3)

	results, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, sampleRecords()[i].ID, r.Email.ID)
		assert.Equal(t, r.Email.ID, r.Reply.SourceEmailID)
		assert.NotEmpty(t, r.Reply.Text)
		assert.Equal(t, StatusPending, r.Status)
	}
	assert.Equal(t, "complaint", results[0].Classification.IntentLabel)
	assert.Equal(t, "inquiry", results[1].Classification.IntentLabel)
	assert.Equal(t, "other", results[2].Classification.IntentLabel)
	assert.Equal(t, "request", results[3].Classification.IntentLabel)
}

func TestProcessAllEmptyDataset(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil, nil, 2)

	results, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessAllPropagatesSourceError(t *testing.T) {
	svc := newTestService(&fakeSource{err: ErrDataUnavailable}, nil, nil, 2)

	_, err := svc.ProcessAll(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestProcessAllHonorsCancellation(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil, nil, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ProcessAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessByID(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil, nil, 1)

	result, err := svc.Process(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "inquiry", result.Classification.IntentLabel)
	assert.Equal(t, []string{"pricing", "quote"}, result.Classification.Keywords)

	_, err = svc.Process(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProcessEscalatesPrioritySenders(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil, domainChecker("bigcorp.com"), 1)

	vip, err := svc.Process(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, vip.Classification.Priority)

	regular, err := svc.Process(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, regular.Classification.Priority)
}

func TestProcessPersistsAndKeepsStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(&fakeSource{records: sampleRecords()}, store, nil, 2)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.entries, 4)

	entry, err := store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "complaint", entry.IntentLabel)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, fixed.Add(time.Hour), entry.ExpiresAt)

	require.NoError(t, svc.MarkResolved(context.Background(), "1"))

	result, err := svc.Process(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, result.Status)

	require.NoError(t, svc.MarkPending(context.Background(), "1"))
	result, err = svc.Process(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)
}

func TestSetStatusWithoutStore(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil, nil, 1)

	assert.False(t, svc.HasStore())
	assert.ErrorIs(t, svc.SetStatus(context.Background(), "1", StatusResolved), ErrStoreDisabled)
}

func TestSetStatusUnknownEmail(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, newFakeStore(), nil, 1)

	assert.ErrorIs(t, svc.SetStatus(context.Background(), "missing", StatusResolved), ErrNotFound)
}

func TestSortByPriority(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	items := []ProcessedEmail{
		{Email: EmailRecord{ID: "old-normal", ReceivedAt: base}, Classification: ClassificationResult{Priority: PriorityNormal}},
		{Email: EmailRecord{ID: "new-normal", ReceivedAt: base.Add(time.Hour)}, Classification: ClassificationResult{Priority: PriorityNormal}},
		{Email: EmailRecord{ID: "old-urgent", ReceivedAt: base}, Classification: ClassificationResult{Priority: PriorityUrgent}},
		{Email: EmailRecord{ID: "no-time"}, Classification: ClassificationResult{Priority: PriorityNormal}},
		{Email: EmailRecord{ID: "new-urgent", ReceivedAt: base.Add(2 * time.Hour)}, Classification: ClassificationResult{Priority: PriorityUrgent}},
	}

	sorted := SortByPriority(items)

	var ids []string
	for _, item := range sorted {
		ids = append(ids, item.Email.ID)
	}
	assert.Equal(t, []string{"new-urgent", "old-urgent", "new-normal", "old-normal", "no-time"}, ids)
	assert.Equal(t, "old-normal", items[0].Email.ID, "input must not be reordered")
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	items := []ProcessedEmail{
		{
			Email:          EmailRecord{ReceivedAt: now.Add(-time.Hour)},
			Classification: ClassificationResult{Priority: PriorityUrgent, Sentiment: SentimentNegative},
			Status:         StatusResolved,
		},
		{
			Email:          EmailRecord{ReceivedAt: now.Add(-48 * time.Hour)},
			Classification: ClassificationResult{Priority: PriorityNormal, Sentiment: SentimentPositive},
			Status:         StatusPending,
		},
		{
			Email:          EmailRecord{},
			Classification: ClassificationResult{Priority: PriorityNormal, Sentiment: SentimentNeutral},
			Status:         StatusPending,
		},
	}

	stats := ComputeStats(items, now)

	assert.Equal(t, Stats{
		Total:    3,
		Urgent:   1,
		Positive: 1,
		Negative: 1,
		Neutral:  1,
		Last24h:  2,
		Resolved: 1,
		Pending:  2,
	}, stats)
}
