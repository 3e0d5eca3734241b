package models

import "time"

// Pagination describes list response paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// IngestSnapshot aggregates pipeline counters for the stats endpoint.
type IngestSnapshot struct {
	Submissions      uint64     `json:"submissions"`
	ExactHashHits    uint64     `json:"exact_hash_hits"`
	TierStats        TierStats  `json:"tier_stats"`
	QueueDepth       QueueDepth `json:"queue_depth"`
	RequestsTotal    uint64     `json:"requests_total"`
	AverageLatencyMs float64    `json:"average_latency_ms"`
	Goroutines       int        `json:"goroutines"`
	GeneratedAt      time.Time  `json:"generated_at"`
}
