package requests

import (
	"jan-server/services/consent-api/internal/domain/pipeline"
)

// StartSessionRequest opens a capture session.
type StartSessionRequest struct {
	Campaign  string `json:"campaign"`
	Language  string `json:"language"`
	MediaType string `json:"media_type"`
}

// ToDomain converts request to domain model; language is the resolved code.
func (r *StartSessionRequest) ToDomain(language string) pipeline.StartRequest {
	return pipeline.StartRequest{
		Campaign:  r.Campaign,
		Language:  language,
		MediaType: r.MediaType,
	}
}
