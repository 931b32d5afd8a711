package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Statistics is the typed payload of an insight. Each variant belongs to
// exactly one category.
type Statistics interface {
	Category() Category
}

// Percent is a percentage in [0, 100]. It is sent as a string with one
// decimal place, e.g. "44.4%".
type Percent float64

// PercentOf returns part/whole*100 and false when whole is zero.
func PercentOf(part, whole int) (Percent, bool) {
	if whole == 0 {
		return 0, false
	}
	return Percent(float64(part) / float64(whole) * 100), true
}

// String formats p with one decimal place.
func (p Percent) String() string {
	return decimal.NewFromFloat(float64(p)).StringFixed(1) + "%"
}

// Rounded returns p rounded to one decimal place.
func (p Percent) Rounded() float64 {
	return Round(float64(p), 1)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var f float64
		if ferr := json.Unmarshal(data, &f); ferr != nil {
			return fmt.Errorf("percent: %w", err)
		}
		*p = Percent(f)
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return fmt.Errorf("percent %q: %w", s, err)
	}
	*p = Percent(d.InexactFloat64())
	return nil
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// PrevalenceStats summarises disease prevalence over the whole sample.
type PrevalenceStats struct {
	SamplePrevalence Percent  `json:"sample_prevalence"`
	MeanDiagnosisAge *float64 `json:"mean_diagnosis_age,omitempty"`
	TotalPatients    int      `json:"total_patients"`
}

func (PrevalenceStats) Category() Category { return CategoryDashboard }

// GlycemiaStats holds prevalence conditioned on the fasting blood sugar
// group. A nil prevalence means the group was empty; its key is then listed
// in Undefined.
type GlycemiaStats struct {
	ElevatedPrevalence *Percent `json:"prevalence_fbs_elevated,omitempty"`
	NormalPrevalence   *Percent `json:"prevalence_fbs_normal,omitempty"`
	ElevatedPatients   int      `json:"patients_fbs_elevated"`
	NormalPatients     int      `json:"patients_fbs_normal"`
	Undefined          []string `json:"undefined,omitempty"`
}

func (GlycemiaStats) Category() Category { return CategoryDashboard }

// DistributionStats names the most frequent category of a distribution.
type DistributionStats struct {
	Headline    string  `json:"headline"`
	TopCategory string  `json:"top_category"`
	TopShare    Percent `json:"top_share"`
	Population  int     `json:"population"`
}

func (DistributionStats) Category() Category { return CategoryDistributions }

// CorrelationStats carries a Pearson coefficient and its reading.
type CorrelationStats struct {
	Overall *float64 `json:"overall_correlation,omitempty"`
	Note    string   `json:"note"`
	Points  int      `json:"points"`
}

func (CorrelationStats) Category() Category { return CategoryCorrelations }

// TrendStats describes the state of temporal analysis.
type TrendStats struct {
	Status string `json:"status"`
}

func (TrendStats) Category() Category { return CategoryTrends }

// FeatureWeight pairs an expanded feature name with its coefficient.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// PredictionStats summarises a fitted classifier.
type PredictionStats struct {
	Model        string        `json:"model"`
	TestAccuracy float64       `json:"test_accuracy"`
	MostPositive FeatureWeight `json:"most_positive_feature"`
	MostNegative FeatureWeight `json:"most_negative_feature"`
}

func (PredictionStats) Category() Category { return CategoryPredictions }
