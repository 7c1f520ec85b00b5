package tagger

// Outcome names the mutually-exclusive classification of one bound
// transaction. The values double as stats keys.
type Outcome string

// Classification outcomes, in priority order.
const (
	AlreadyUpToDate   Outcome = "already_up_to_date"
	PersonalCategory  Outcome = "personal_cat"
	UserSkippedRetag  Outcome = "user_skipped_retag"
	Retag             Outcome = "retag"
	NewTag            Outcome = "new_tag"
	NoRetag           Outcome = "no_retag"
	AdjustItemizedTax Outcome = "adjust_itemized_tax"
	MiscCharge        Outcome = "misc_charge"
)

// Stats counts classification outcomes for one run. It is a plain value
// built up through the pipeline and returned in the run result; there is
// no process-wide counter state.
type Stats map[Outcome]int

// NewStats returns a stats map with every counter explicitly present at
// zero, so counters that never fire still appear in reports.
func NewStats() Stats {
	return Stats{
		AlreadyUpToDate:   0,
		PersonalCategory:  0,
		UserSkippedRetag:  0,
		Retag:             0,
		NewTag:            0,
		NoRetag:           0,
		AdjustItemizedTax: 0,
		MiscCharge:        0,
	}
}

// Add increments the counter for one outcome.
func (s Stats) Add(o Outcome) {
	s[o]++
}

// Merge folds other into s.
func (s Stats) Merge(other Stats) {
	for k, v := range other {
		s[k] += v
	}
}
