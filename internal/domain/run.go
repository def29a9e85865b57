package domain

import "time"

// SearchRun records one fetch against one source. Written once, never updated.
type SearchRun struct {
	ID             string        `json:"id"`
	RunDate        time.Time     `json:"run_date"`
	SourcePlatform string        `json:"source_platform"`
	Query          string        `json:"query"`
	Location       string        `json:"location,omitempty"`
	ResultCount    int           `json:"result_count"`
	NewJobCount    int           `json:"new_job_count"`
	ExecutionTime  time.Duration `json:"execution_time"`
	Error          string        `json:"error,omitempty"`
}

// Stats is the aggregate view served to presentation layers.
type Stats struct {
	Total            int                `json:"total"`
	ByStatus         map[Status]int     `json:"by_status"`
	ByPlatform       map[string]int     `json:"by_platform"`
	Applied          int                `json:"applied"`
	Responses        int                `json:"responses"`
	ResponseRate     float64            `json:"response_rate"`
	AvgMatchScore    float64            `json:"avg_match_score"`
	SourceAvgResults map[string]float64 `json:"source_avg_results"`
	SearchesInWindow int                `json:"searches_in_window"`
	WindowDays       int                `json:"window_days"`
}
