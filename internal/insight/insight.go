package insight

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category groups insights on the analytics side.
type Category string

const (
	CategoryDashboard     Category = "dashboard"
	CategoryDistributions Category = "distributions"
	CategoryCorrelations  Category = "correlations"
	CategoryPredictions   Category = "predictions"
	CategoryTrends        Category = "trends"
)

// Categories lists every category in pipeline order.
var Categories = []Category{
	CategoryDashboard,
	CategoryDistributions,
	CategoryCorrelations,
	CategoryTrends,
	CategoryPredictions,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Chart types understood by the analytics frontend.
const (
	ChartBar           = "bar"
	ChartBarHorizontal = "bar_horizontal"
	ChartScatter       = "scatter"
)

var (
	ErrMissingTitle    = errors.New("insight has no title")
	ErrMissingCategory = errors.New("insight has no category")
	ErrUnknownCategory = errors.New("unknown insight category")
)

// Insight is one unit of analysis output. Its category is carried by the
// statistics variant so the two can never disagree.
type Insight struct {
	Title     string
	ChartType string
	Chart     Chart
	Stats     Statistics
}

// Category returns the category of the insight's statistics.
func (i Insight) Category() Category {
	if i.Stats == nil {
		return ""
	}
	return i.Stats.Category()
}

// Validate checks the invariants every insight must satisfy.
func (i Insight) Validate() error {
	if i.Title == "" {
		return ErrMissingTitle
	}
	c := i.Category()
	if c == "" {
		return ErrMissingCategory
	}
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return nil
}

type wireInsight struct {
	Title      string     `json:"title"`
	Category   Category   `json:"category"`
	ChartType  string     `json:"chartType,omitempty"`
	ChartData  Chart      `json:"chartData,omitempty"`
	Statistics Statistics `json:"statistics"`
}

// MarshalJSON encodes the insight in its wire shape.
func (i Insight) MarshalJSON() ([]byte, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(wireInsight{
		Title:      i.Title,
		Category:   i.Category(),
		ChartType:  i.ChartType,
		ChartData:  i.Chart,
		Statistics: i.Stats,
	})
}
