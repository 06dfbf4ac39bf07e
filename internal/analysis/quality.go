package analysis

// QualityReport summarizes one cleaning pass. It is built once per load and
// not modified afterwards.
type QualityReport struct {
	Domain           Domain         `json:"domain"`
	CurrentYear      int            `json:"current_year"`
	OriginalRows     int            `json:"original_rows"`
	CleanedRows      int            `json:"cleaned_rows"`
	DroppedRows      int            `json:"dropped_rows"`
	Issues           []string       `json:"issues"`
	Numeric          []FieldQuality `json:"numeric"`
	Completeness     []Completeness `json:"completeness"`
	MissingKeyFields []string       `json:"missing_key_fields,omitempty"`
	UnparsedDates    int            `json:"unparsed_dates,omitempty"`
}

// FieldQuality holds conversion counts for one numeric column.
type FieldQuality struct {
	Field  Field  `json:"field"`
	Column string `json:"column"`
	// ValidBefore counts non-blank cells before coercion.
	ValidBefore int `json:"valid_before"`
	ValidAfter  int `json:"valid_after"`
	Unparseable int `json:"unparseable"`
	OutOfRange  int `json:"out_of_range"`
	Missing     int `json:"missing"`
	// MissingRate is Missing / CleanedRows * 100, unrounded.
	MissingRate float64 `json:"missing_rate"`
	Outliers    int     `json:"outliers"`
}

// Completeness is the share of cleaned rows with a value for a key field.
type Completeness struct {
	Field   Field   `json:"field"`
	Column  string  `json:"column"`
	Present int     `json:"present"`
	Percent float64 `json:"percent"`
}

// Stat returns the conversion counts of f, if f was coerced.
func (q *QualityReport) Stat(f Field) (FieldQuality, bool) {
	for _, s := range q.Numeric {
		if s.Field == f {
			return s, true
		}
	}
	return FieldQuality{}, false
}

// CompletenessOf returns the completeness entry of a key field.
func (q *QualityReport) CompletenessOf(f Field) (Completeness, bool) {
	for _, c := range q.Completeness {
		if c.Field == f {
			return c, true
		}
	}
	return Completeness{}, false
}
