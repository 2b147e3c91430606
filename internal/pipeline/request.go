package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"

	"vodconverter/internal/services"
)

// Request is the conversion job carried by one queue message.
type Request struct {
	SourceKey string
	JobID     string
	AssetID   int64
}

type requestBody struct {
	Key             string `json:"key"`
	UploadProcessID string `json:"uploadProcessId"`
	EpisodeID       *int64 `json:"episodeId"`
}

// ParseRequest decodes a message body. Empty bodies, invalid JSON and missing
// fields all yield services.ErrMalformedMessage.
func ParseRequest(body []byte) (Request, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Request{}, services.Wrap(services.ErrMalformedMessage, "pipeline", "parse", "empty body", nil)
	}
	var raw requestBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, services.Wrap(services.ErrMalformedMessage, "pipeline", "parse", "decode body", err)
	}
	var missing []string
	if strings.TrimSpace(raw.Key) == "" {
		missing = append(missing, "key")
	}
	if strings.TrimSpace(raw.UploadProcessID) == "" {
		missing = append(missing, "uploadProcessId")
	}
	if raw.EpisodeID == nil {
		missing = append(missing, "episodeId")
	}
	if len(missing) > 0 {
		return Request{}, services.Wrap(services.ErrMalformedMessage, "pipeline", "parse",
			"missing "+strings.Join(missing, ", "), nil)
	}
	return Request{
		SourceKey: raw.Key,
		JobID:     raw.UploadProcessID,
		AssetID:   *raw.EpisodeID,
	}, nil
}
