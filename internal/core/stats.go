package core

import "time"

// Stats summarizes a set of processed emails for the dashboard
type Stats struct {
	Total    int `json:"total"`
	Urgent   int `json:"urgent"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Last24h  int `json:"last_24h"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
}

// ComputeStats counts items by priority, sentiment and status. Emails
// without a timestamp count as received within the last day.
func ComputeStats(items []ProcessedEmail, now time.Time) Stats {
	cutoff := now.Add(-24 * time.Hour)
	stats := Stats{Total: len(items)}
	for _, item := range items {
		if item.Classification.Priority == PriorityUrgent {
			stats.Urgent++
		}
		switch item.Classification.Sentiment {
		case SentimentPositive:
			stats.Positive++
		case SentimentNegative:
			stats.Negative++
		default:
			stats.Neutral++
		}
		if !item.Email.HasReceivedAt() || !item.Email.ReceivedAt.Before(cutoff) {
			stats.Last24h++
		}
		if item.Status == StatusResolved {
			stats.Resolved++
		}
	}
	stats.Pending = stats.Total - stats.Resolved
	return stats
}
