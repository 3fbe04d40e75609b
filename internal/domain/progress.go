package domain

// Progress is a point-in-time view of a fetch run.
type Progress struct {
	StartYear   int `json:"start_year"`
	EndYear     int `json:"end_year"`
	CurrentYear int `json:"current_year,omitempty"` // zero when idle
	Downloaded  int `json:"downloaded"`
	Skipped     int `json:"skipped"`
}
