package api

// OwnerCostEntry is one owner's total for the report window.
type OwnerCostEntry struct {
	Owner string  `json:"owner"`
	Total float64 `json:"total"`
}

// RunResult is the invocation envelope returned by the run endpoint and
// printed by the CLI.
type RunResult struct {
	Status     int              `json:"status"`
	Message    string           `json:"message,omitempty"`
	OwnersCost []OwnerCostEntry `json:"owners_cost,omitempty"`
}
