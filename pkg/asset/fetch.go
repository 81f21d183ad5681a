package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkoeppel/certpress/pkg/errors"
)

const (
	// fetchTimeout bounds a single download attempt.
	fetchTimeout = 30 * time.Second

	// maxTemplateBytes caps remote template size (20 MB).
	maxTemplateBytes = 20 << 20

	// fetchAttempts is the number of tries for transient failures.
	fetchAttempts = 3
)

// Fetch downloads and decodes a remote template image.
func Fetch(ctx context.Context, url string) (*Image, error) {
	data, err := FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// FetchBytes downloads a remote template and returns the raw encoded
// bytes. Transient failures (network errors, 5xx responses) are retried
// with exponential backoff; 4xx responses fail immediately.
func FetchBytes(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: fetchTimeout}

	delay := time.Second
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		data, err := fetchOnce(ctx, client, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !errors.Is(lastErr, errors.ErrCodeNetwork) {
			return nil, lastErr
		}
		if attempt < fetchAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid template URL %s", url)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch template %s", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, errors.New(errors.ErrCodeNetwork, "fetch template %s: %s", url, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeInvalidImage, "fetch template %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read template %s", url)
	}
	if len(data) > maxTemplateBytes {
		return nil, errors.New(errors.ErrCodeInvalidImage, "template %s exceeds %s", url, byteSize(maxTemplateBytes))
	}
	return data, nil
}

func byteSize(n int) string {
	return fmt.Sprintf("%d MB", n>>20)
}
