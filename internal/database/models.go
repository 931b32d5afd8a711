package database

import (
	"encoding/json"
	"time"

	"github.com/TobiSchelling/heartbeat/internal/insight"
)

// Insight is a received insight as stored by the receiver.
type Insight struct {
	ID         int64
	Title      string
	Category   string
	ChartType  *string
	ChartData  *string
	Statistics string
	RequestID  *string
	RunID      *string
	ReceivedAt *string
}

// Envelope converts the stored row back into its wire form.
func (i Insight) Envelope() insight.Envelope {
	env := insight.Envelope{
		Title:      i.Title,
		Category:   insight.Category(i.Category),
		Statistics: json.RawMessage(i.Statistics),
	}
	if i.ChartType != nil {
		env.ChartType = *i.ChartType
	}
	if i.ChartData != nil {
		env.ChartData = json.RawMessage(*i.ChartData)
	}
	return env
}

// Stats holds counts for the receiver's index page.
type Stats struct {
	Total      int
	Runs       int
	ByCategory map[string]int
}

// Run groups the insights delivered under one run identifier.
type Run struct {
	RunID      string
	Count      int
	ReceivedAt string
}

// FormatReceived formats a stored timestamp for display.
// "2026-02-06 14:03:00" becomes "Feb 06, 2026 14:03".
func FormatReceived(ts string) string {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		return ts
	}
	return t.Format("Jan 02, 2006 15:04")
}
