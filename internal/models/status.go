package models

import "time"

// FetchStatus is the observable state of the background ingestion loop.
// Written by the monitor between cycle stages, read by external observers.
type FetchStatus struct {
	Message       string     `json:"message"`
	Progress      int        `json:"progress"` // 0-100 within the current cycle
	LastUpdate    *time.Time `json:"last_update,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	CycleCount    int        `json:"cycle_count"`
	ArticlesSaved int        `json:"articles_saved"` // Last completed cycle
	ArticlesTotal int        `json:"articles_total"` // Last completed cycle, pre-filter
}
