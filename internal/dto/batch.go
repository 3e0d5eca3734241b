package dto

// StartSessionRequest kicks off a batch campaign over a source folder.
type StartSessionRequest struct {
	SourceFolder string `json:"source_folder" binding:"required"`
	BatchSize    int    `json:"batch_size"`
}

// EstimateRequest asks for a campaign cost projection without starting
// anything.
type EstimateRequest struct {
	TotalDocuments     int     `json:"total_documents" binding:"required,gt=0"`
	BatchSize          int     `json:"batch_size"`
	CostPerHour        float64 `json:"cost_per_hour"`
	SecondsPerDocument float64 `json:"seconds_per_document"`
}
