package core

import (
	"fmt"
	"strings"

	"github.com/mikey/reply-assistant/internal/utils"
	"go.uber.org/zap"
)

const promptFormat = `You are a customer support agent. Write a concise, polite and empathetic reply to the email below.

Email:
From: %s
Subject: %s
Body:
%s

Detected intent: %s
%s
Guidelines:
- Keep a friendly, professional tone.
- Acknowledge the customer's frustration if the tone is negative.
- Reference the product or feature the customer mentions.
- Keep it short (4-8 sentences).
- Reply with the email text only, without notes or JSON.`

// PromptBuilder renders generator prompts for email records
type PromptBuilder struct {
	textProcessor *utils.TextProcessor
	knowledge     KnowledgeRetriever
	maxBodySize   int
	topK          int
}

// NewPromptBuilder creates a prompt builder. knowledge may be nil.
func NewPromptBuilder(textProcessor *utils.TextProcessor, knowledge KnowledgeRetriever, maxBodySize, topK int) *PromptBuilder {
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(zap.NewNop())
	}
	return &PromptBuilder{
		textProcessor: textProcessor,
		knowledge:     knowledge,
		maxBodySize:   maxBodySize,
		topK:          topK,
	}
}

// Build returns the prompt for one record
func (b *PromptBuilder) Build(record EmailRecord, classification ClassificationResult) string {
	body := b.textProcessor.ProcessText(record.Body, b.maxBodySize)

	var extra strings.Builder
	if classification.Sentiment == SentimentNegative {
		extra.WriteString("The customer sounds frustrated.\n")
	}
	if classification.Priority == PriorityUrgent {
		extra.WriteString("The message is urgent; say it has been escalated.\n")
	}
	if b.knowledge != nil && b.topK > 0 {
		excerpts := b.knowledge.Retrieve(record.Subject+" "+record.Body, b.topK)
		if len(excerpts) > 0 {
			extra.WriteString("\nUse these knowledge base excerpts where relevant:\n")
			for i, ex := range excerpts {
				if i > 0 {
					extra.WriteString("\n---\n")
				}
				fmt.Fprintf(&extra, "[%s]\n%s\n", ex.Source, strings.TrimSpace(ex.Text))
			}
		}
	}

	return fmt.Sprintf(promptFormat, record.Sender, record.Subject, body, classification.IntentLabel, extra.String())
}
