package database

// Item is a stored, classified news item.
type Item struct {
	ID             int64
	URL            string
	Title          string
	Summary        string
	Source         string
	Category       string
	PublishedAt    string
	ContentType    string
	TechCategories []string
	Confidence     float64
	Reasoning      string
	Via            string
	RunID          int64
	CreatedAt      string
}

// Run records one pipeline execution and its outcome counts.
type Run struct {
	ID            int64
	StartedAt     string
	FinishedAt    string
	TotalFound    int
	NewItems      int
	Duplicates    int
	LLMCount      int
	FallbackCount int
	CacheHits     int
	FailedSources int
}

// Stats summarizes the stored corpus.
type Stats struct {
	TotalItems   int
	TotalRuns    int
	ByType       map[string]int
	LastRunAt    string
	LastRunItems int
}
