package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/utils"
	"go.uber.org/zap"
)

const bodyPreviewSize = 500

// Options controls what the printer shows
type Options struct {
	// JSON prints the triples as a JSON array instead of text
	JSON bool
	// Verbose adds a body preview to text output
	Verbose bool
	// EmailID limits output to a single email
	EmailID string
	// Timeout bounds the whole run; zero means no limit
	Timeout time.Duration
}

// Printer is a terminal frontend that processes the dataset once and
// prints every suggestion.
type Printer struct {
	service *core.AssistantService
	logger  *zap.Logger
	out     io.Writer
	opts    Options
	text    *utils.TextProcessor
}

// NewPrinter creates a new CLI printer writing to out
func NewPrinter(service *core.AssistantService, logger *zap.Logger, out io.Writer, opts Options) *Printer {
	return &Printer{
		service: service,
		logger:  logger,
		out:     out,
		opts:    opts,
		text:    utils.NewTextProcessor(logger),
	}
}

// Start processes the dataset and prints the results
func (p *Printer) Start() error {
	ctx := context.Background()
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	return p.Run(ctx)
}

// Stop is a no-op for the CLI printer
func (p *Printer) Stop() error {
	return nil
}

// Run processes the dataset, or a single email, and prints the results
func (p *Printer) Run(ctx context.Context) error {
	startTime := time.Now()

	var items []core.ProcessedEmail
	if p.opts.EmailID != "" {
		item, err := p.service.Process(ctx, p.opts.EmailID)
		if err != nil {
			return fmt.Errorf("failed to process email %s: %w", p.opts.EmailID, err)
		}
		items = []core.ProcessedEmail{item}
	} else {
		var err error
		items, err = p.service.ProcessAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to process emails: %w", err)
		}
	}

	p.logger.Debug("Processed dataset",
		zap.Int("count", len(items)),
		zap.Duration("duration", time.Since(startTime)))

	if p.opts.JSON {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	p.printText(items, p.service.Source().Diagnostics())
	return nil
}

func (p *Printer) printText(items []core.ProcessedEmail, diagnostics []core.RowError) {
	stats := core.ComputeStats(items, time.Now())
	fmt.Fprintf(p.out, "=== Summary ===\n")
	fmt.Fprintf(p.out, "Emails: %d  Urgent: %d  Positive: %d  Negative: %d  Neutral: %d  Pending: %d  Resolved: %d\n",
		stats.Total, stats.Urgent, stats.Positive, stats.Negative, stats.Neutral, stats.Pending, stats.Resolved)

	if len(diagnostics) > 0 {
		fmt.Fprintf(p.out, "Skipped rows: %d\n", len(diagnostics))
		for _, d := range diagnostics {
			fmt.Fprintf(p.out, "  %s\n", d)
		}
	}

	for _, item := range core.SortByPriority(items) {
		p.printItem(item)
	}
}

func (p *Printer) printItem(item core.ProcessedEmail) {
	email := item.Email
	c := item.Classification

	fmt.Fprintf(p.out, "\n=== Email %s ===\n", email.ID)
	fmt.Fprintf(p.out, "From: %s\n", email.Sender)
	fmt.Fprintf(p.out, "Subject: %s\n", email.Subject)
	if email.HasReceivedAt() {
		fmt.Fprintf(p.out, "Received: %s\n", email.ReceivedAt.Format(time.RFC3339))
	}

	if p.opts.Verbose {
		preview := p.text.TruncateText(email.Body, bodyPreviewSize)
		fmt.Fprintf(p.out, "\nBody preview:\n%s\n", preview)
	}

	fmt.Fprintf(p.out, "\n--- Analysis ---\n")
	fmt.Fprintf(p.out, "Intent: %s\n", c.IntentLabel)
	fmt.Fprintf(p.out, "Keywords: %s\n", strings.Join(c.Keywords, ", "))
	fmt.Fprintf(p.out, "Sentiment: %s\n", c.Sentiment)
	fmt.Fprintf(p.out, "Priority: %s\n", c.Priority)
	if c.Requirements != "" {
		fmt.Fprintf(p.out, "Requirements: %s\n", c.Requirements)
	}
	if len(c.Contacts) > 0 {
		fmt.Fprintf(p.out, "Contacts: %s\n", strings.Join(c.Contacts, ", "))
	}
	fmt.Fprintf(p.out, "Status: %s\n", item.Status)

	fmt.Fprintf(p.out, "\n--- Suggested reply (%s) ---\n%s\n", item.Reply.GeneratedBy, item.Reply.Text)
}
