package refresh

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// RemoteSignaler delivers refresh signals to a dashboard process listening
// elsewhere, by POSTing to its trigger URL.
type RemoteSignaler struct {
	url    string
	client *http.Client
}

// NewRemoteSignaler creates a signaler for url. Timeouts come from the
// caller's context.
func NewRemoteSignaler(url string) *RemoteSignaler {
	return &RemoteSignaler{url: url, client: &http.Client{}}
}

// Signal POSTs an empty body and expects HTTP 200.
func (r *RemoteSignaler) Signal(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", stats.ErrSignalDeliveryFailed, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", stats.ErrSignalDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status code %d", stats.ErrSignalDeliveryFailed, r.url, resp.StatusCode)
	}
	return nil
}
