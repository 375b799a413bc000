package models

import "time"

// SystemMetrics is the lightweight runtime summary served by the health endpoint.
type SystemMetrics struct {
	RequestsTotal uint64    `json:"requestsTotal"`
	CacheHitRatio float64   `json:"cacheHitRatio"`
	Goroutines    int       `json:"goroutines"`
	Subscribers   int       `json:"subscribers"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
