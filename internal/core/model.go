package core

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// EmailRecord represents one inbound message. Records are immutable once
// loaded; Body is always present, possibly empty.
type EmailRecord struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// HasReceivedAt reports whether the dataset carried a timestamp
func (e EmailRecord) HasReceivedAt() bool {
	return !e.ReceivedAt.IsZero()
}

// SenderName returns a display name for greetings: the name part of
// "Name <addr>", else the local part of the address.
func (e EmailRecord) SenderName() string {
	sender := strings.TrimSpace(e.Sender)
	if sender == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(sender); err == nil {
		if addr.Name != "" {
			return addr.Name
		}
		sender = addr.Address
	}
	if i := strings.Index(sender, "<"); i > 0 {
		return strings.Trim(strings.TrimSpace(sender[:i]), `"`)
	}
	if i := strings.Index(sender, "@"); i > 0 {
		return sender[:i]
	}
	return sender
}

// SenderAddress returns the bare address of the sender when it parses
func (e EmailRecord) SenderAddress() string {
	if addr, err := mail.ParseAddress(e.Sender); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(e.Sender)
}

// Sentiment is the coarse tone of a message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Priority marks whether a message needs immediate attention
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

// ClassificationResult is the derived intent analysis of one EmailRecord.
// IntentLabel is never empty. Keywords is sorted and free of duplicates.
type ClassificationResult struct {
	IntentLabel  string    `json:"intent_label"`
	Keywords     []string  `json:"keywords"`
	Sentiment    Sentiment `json:"sentiment"`
	Priority     Priority  `json:"priority"`
	Requirements string    `json:"requirements,omitempty"`
	Contacts     []string  `json:"contacts,omitempty"`
}

// GeneratedByTemplate marks replies rendered from the template set
const GeneratedByTemplate = "template"

// SuggestedReply is the reply text proposed for one EmailRecord
type SuggestedReply struct {
	Text          string `json:"text"`
	SourceEmailID string `json:"source_email_id"`
	GeneratedBy   string `json:"generated_by"`
}

// Status tracks whether a suggestion has been dealt with
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// ProcessedEmail is one output triple of the pipeline
type ProcessedEmail struct {
	Email          EmailRecord          `json:"email"`
	Classification ClassificationResult `json:"classification"`
	Reply          SuggestedReply       `json:"reply"`
	Status         Status               `json:"status"`
}

// StoredReply is the persisted form of a ProcessedEmail
type StoredReply struct {
	EmailID     string
	Sender      string
	Subject     string
	ReceivedAt  time.Time
	IntentLabel string
	Keywords    []string
	Sentiment   Sentiment
	Priority    Priority
	ReplyText   string
	GeneratedBy string
	Status      Status
	ProcessedAt time.Time
	ExpiresAt   time.Time
}

// RowError describes a dataset row that was rejected during loading
type RowError struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (r RowError) String() string {
	if r.ID != "" {
		return fmt.Sprintf("line %d (%s): %s", r.Line, r.ID, r.Reason)
	}
	return fmt.Sprintf("line %d: %s", r.Line, r.Reason)
}
