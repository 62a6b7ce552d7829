package store

// CauseFilter narrows a cause listing. Zero values mean "no filter".
type CauseFilter struct {
	Category  string
	IsActive  *bool
	AffectTRS *bool
	Search    string
	Page      int
	Limit     int
}

// StopFilter narrows a paginated stop listing.
type StopFilter struct {
	CauseCode string
	Equipe    int    // 0 = all
	From      string // day, inclusive
	To        string // day, inclusive
	Page      int
	Limit     int
}

// StopRange selects the raw stop rows feeding an aggregation.
type StopRange struct {
	From      string // day, inclusive
	To        string // day, inclusive
	Equipe    int    // 0 = all
	CauseCode string
}

// SampleRange selects timestamped samples by calendar day, both bounds
// inclusive.
type SampleRange struct {
	From string
	To   string
}
