package storage

import "time"

// ScanRecord is one persisted scan history row.
type ScanRecord struct {
	URL               string    `json:"url"`
	Classification    string    `json:"classification"`
	ConfidencePercent int       `json:"confidence_percent"`
	RiskLevel         string    `json:"risk_level"`
	Source            string    `json:"source"` // manual | guard
	ScannedAt         time.Time `json:"scanned_at"`
}

// BlockRecord captures a blocking decision for one tab so the warning surface,
// which runs in a separate navigation context, can read it back. At most one
// live record exists per tab.
type BlockRecord struct {
	TabID             int64     `json:"tab_id"`
	OriginalURL       string    `json:"original_url"`
	Classification    string    `json:"classification"`
	ConfidencePercent int       `json:"confidence_percent"`
	RiskLevel         string    `json:"risk_level"`
	BlockedAt         time.Time `json:"blocked_at"`
}

// ClassificationStats aggregates scan history per classification.
type ClassificationStats struct {
	Classification string `json:"classification"`
	Count          int    `json:"count"`
}
