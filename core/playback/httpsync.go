package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPSyncer pushes progress reports to the progress sync endpoint.
// The server derives the user from the bearer token.
type HTTPSyncer struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Syncer = (*HTTPSyncer)(nil)

func NewHTTPSyncer(baseURL, token string) *HTTPSyncer {
	return &HTTPSyncer{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSyncer) SaveProgress(ctx context.Context, trainingID string, progress int, completed bool) error {
	body, err := json.Marshal(map[string]interface{}{
		"trainingId": trainingID,
		"progress":   progress,
		"completed":  completed,
	})
	if err != nil {
		return errors.Wrap(err, "marshalling progress report")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/progress", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building progress request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending progress report")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("progress sync failed: HTTP %d", resp.StatusCode)
	}
	return nil
}
