package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// postJSON marshals body, sends it and returns the raw response body and
// status code. Transport failures are classified; HTTP status handling is
// left to the caller because each backend reports errors differently.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) ([]byte, int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, &FatalError{Provider: provider, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, &FatalError{Provider: provider, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, classifyTransport(ctx, provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, classifyTransport(ctx, provider, fmt.Errorf("failed to read response: %w", err))
	}
	return data, resp.StatusCode, nil
}
