package ingest

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rmenezes/aguaviva/internal/httputil"
)

// FetchCSV downloads a SISAGUA export over HTTP with exponential backoff on
// transient failures. Client errors other than rate limiting are permanent.
func FetchCSV(url string) ([]byte, error) {
	client := httputil.NewClient()

	var body []byte
	operation := func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("fetch export: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("fetch export: status %d", resp.StatusCode)
		default:
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch export: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}
