package version

// Input represents the input for version and health endpoints
type Input struct{}

// Output represents the output for version endpoint
type Output struct {
	Body VersionResponse
}

// VersionResponse ответ GET /api/version
type VersionResponse struct {
	Status  string `json:"status" example:"OK" doc:"Health status of the service"`
	Version string `json:"version" example:"2.0.0" doc:"API contract version"`
}
