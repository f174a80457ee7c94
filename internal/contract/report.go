package contract

import "time"

type StatusCounts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Delayed    int `json:"delayed"`
}

type CategoryStats struct {
	Category string `json:"category"`
	StatusCounts
}

type StatsResponse struct {
	StatusCounts
	PercentDone float64         `json:"percent_done"`
	ByCategory  []CategoryStats `json:"by_category"`
}

// CurvePoint counts planned starts and actual completions in one ISO week.
type CurvePoint struct {
	Week    string `json:"week"` // e.g. 2025-KW02
	Planned int    `json:"planned"`
	Actual  int    `json:"actual"`
}

type CurveResponse struct {
	Points []CurvePoint `json:"points"`
}

// TimelineActivity aggregates one activity's tasks inside a segment.
type TimelineActivity struct {
	Activity string     `json:"activity"`
	Category string     `json:"category"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Total    int        `json:"total"`
	Done     int        `json:"done"`
	Progress float64    `json:"progress"`
	Delayed  bool       `json:"delayed"`
}

type TimelineSegment struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Activities []TimelineActivity `json:"activities"`
}

type TimelineResponse struct {
	ProjectID string            `json:"project_id"`
	Level     string            `json:"level"`
	Segments  []TimelineSegment `json:"segments"`
}
