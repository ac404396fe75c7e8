// Package types contains common types used across the application
package types

// Row is one line of the ranked breakdown shown to users
type Row struct {
	Rank      int     `json:"rank"`
	Role      string  `json:"role"`
	Written   float64 `json:"written"`
	Interview float64 `json:"interview"`
	Composite float64 `json:"composite"`
	IsUser    bool    `json:"is_user"`
	// AtCutoff marks a written score pinned to the interview cutoff.
	AtCutoff bool `json:"at_cutoff"`
}
