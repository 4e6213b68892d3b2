package compound

// FieldSummaryDTO carries descriptive statistics for one analysis field.
// Statistics that are undefined for the observed values (for example the
// standard deviation of a single observation) are null.
type FieldSummaryDTO struct {
	Field  PropertyField `json:"field"`
	Count  int           `json:"count"`
	Mean   *float64      `json:"mean"`
	Median *float64      `json:"median"`
	Std    *float64      `json:"std"`
	Min    *float64      `json:"min"`
	Max    *float64      `json:"max"`
}

// CorrelationDTO is a symmetric Pearson correlation matrix.  Undefined
// entries (too few complete pairs, or zero variance) are null.
type CorrelationDTO struct {
	Fields []PropertyField `json:"fields"`
	Values [][]*float64    `json:"values"`
}

// OverviewDTO is the headline summary of a compound set.
type OverviewDTO struct {
	CompoundCount    int      `json:"compound_count"`
	TargetCount      int      `json:"target_count"`
	DrugLikeCount    int      `json:"drug_like_count"`
	DrugLikeFraction float64  `json:"drug_like_fraction"`
	MeanPIC50        *float64 `json:"mean_pic50"`
	MaxPIC50         *float64 `json:"max_pic50"`
	TopCompoundID    string   `json:"top_compound_id,omitempty"`
}

// QueryResultDTO is the response of a filter query: the matching records
// together with the aggregate statistics of the matched subset.
type QueryResultDTO struct {
	Records  []CompoundDTO     `json:"records"`
	Overview OverviewDTO       `json:"overview"`
	Summary  []FieldSummaryDTO `json:"summary"`
}

// ExportResultDTO describes the report objects written for a dataset.
type ExportResultDTO struct {
	SummaryKey     string `json:"summary_key"`
	CorrelationKey string `json:"correlation_key"`
	SummaryURL     string `json:"summary_url,omitempty"`
	CorrelationURL string `json:"correlation_url,omitempty"`
}
