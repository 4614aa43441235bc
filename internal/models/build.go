package models

import "time"

// Build is a saved analysis owned by one user. It is never mutated after creation.
type Build struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	CPU             string         `json:"cpu"`
	GPU             string         `json:"gpu"`
	RAM             string         `json:"ram"`
	Result          AnalysisResult `json:"result"`
	Recommendations []string       `json:"recommendations"`
	CreatedAt       time.Time      `json:"created_at"`
}
