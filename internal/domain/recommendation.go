package domain

// Past order of an employee, shown as "order again"
type RepeatItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	OrderCount  int    `json:"order_count"`
}

type ScoredRecommendation struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

type RecommendationMeta struct {
	CacheHit        bool   `json:"cache_hit"`
	GeneratedAt     string `json:"generated_at"`
	TotalCount      int    `json:"total_count"`
	ModelGeneration string `json:"model_generation"`
}

type RecommendationResult struct {
	EmployeeID      int64                  `json:"employee_id"`
	RepeatItems     []RepeatItem           `json:"repeat_items"`
	Recommendations []ScoredRecommendation `json:"recommendations"`
	CacheHit        bool                   `json:"-"`
}

type BatchStatus string

const (
	StatusSuccess BatchStatus = "success"
	StatusFailed  BatchStatus = "failed"
)

type BatchUserResult struct {
	EmployeeID      int64                  `json:"employee_id"`
	Recommendations []ScoredRecommendation `json:"recommendations,omitempty"`
	Status          BatchStatus            `json:"status"`
	Error           string                 `json:"error,omitempty"`
	Message         string                 `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page           int               `json:"page"`
	Limit          int               `json:"limit"`
	TotalEmployees int               `json:"total_employees"`
	Results        []BatchUserResult `json:"results"`
	Summary        BatchSummary      `json:"summary"`
	Metadata       BatchMeta         `json:"metadata"`
}
