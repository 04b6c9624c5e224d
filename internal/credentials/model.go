package credentials

import "satu-amo-bridge/internal/amocrm"

// Credential is one registered source/destination pair with its
// provisioned custom-field mapping.
type Credential struct {
	ID             int64
	SourceAPIURL   string
	SourceAPIToken string
	DestAPIURL     string
	DestAPIToken   string
	PipelineID     int64
	FieldIDs       amocrm.FieldIDs
}

// PublicCredential is the projection exposed by the administrative
// API; tokens and field ids are never returned.
type PublicCredential struct {
	ID           int64  `json:"id"`
	SourceAPIURL string `json:"api_url_satu"`
	DestAPIURL   string `json:"api_url_amo"`
	PipelineID   int64  `json:"pipeline_id"`
}

// AddInput carries the registration parameters. The source API URL is
// fixed by the service; only the tokens and the destination vary.
type AddInput struct {
	SourceAPIToken string
	DestAPIURL     string
	DestAPIToken   string
	PipelineID     int64
}
