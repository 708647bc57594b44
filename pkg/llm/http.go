package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sparhub/sparrow/pkg/metrics"
)

// doJSON posts a JSON body, decodes a JSON response, and translates
// non-2xx statuses into the shared error taxonomy. Both adapters route
// through here so status mapping and metrics stay identical.
func doJSON(ctx context.Context, provider, model string, timeout time.Duration, url string, headers map[string]string, body any) (map[string]any, error) {
	start := time.Now()
	decoded, err := postJSON(ctx, provider, timeout, url, headers, body)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, model, status).Inc()
	metrics.LLMRequestDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())

	return decoded, err
}

func postJSON(ctx context.Context, provider string, timeout time.Duration, url string, headers map[string]string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, transportError(provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Provider: provider, Err: err}
	}

	if err := statusError(provider, resp.StatusCode, raw); err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ProviderError{Provider: provider, Status: resp.StatusCode, Body: string(raw)}
	}
	return decoded, nil
}

func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: provider, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Provider: provider, Err: err}
	}
	return &NetworkError{Provider: provider, Err: err}
}

func statusError(provider string, status int, raw []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		return &AuthenticationError{Provider: provider}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider}
	case status >= 500:
		return &UpstreamError{Provider: provider, Status: status, Body: string(raw)}
	case status < 200 || status >= 300:
		return &ProviderError{Provider: provider, Status: status, Body: string(raw)}
	}
	return nil
}

// openStream posts a JSON body and hands back the response body for SSE
// reading. Vendor errors surface before any fragment flows; the returned
// cancel releases the request deadline when the stream consumer is done.
func openStream(ctx context.Context, provider string, timeout time.Duration, url string, headers map[string]string, body any) (io.ReadCloser, context.CancelFunc, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		cancel()
		return nil, nil, transportError(provider, err)
	}

	if err := statusError(provider, resp.StatusCode, readErrorBody(resp)); err != nil {
		cancel()
		return nil, nil, err
	}
	return resp.Body, cancel, nil
}

func readErrorBody(resp *http.Response) []byte {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return raw
}

// streamSSE reads data: lines from an SSE stream, applies extract to each
// decoded JSON payload, and sends the non-empty fragments. The channel
// closes when the stream ends.
func streamSSE(body io.ReadCloser, cancel context.CancelFunc, extract func(map[string]any) string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		defer cancel()
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "" || data == "[DONE]" {
				continue
			}
			var chunk map[string]any
			if json.Unmarshal([]byte(data), &chunk) != nil {
				continue
			}
			if fragment := extract(chunk); fragment != "" {
				out <- fragment
			}
		}
	}()
	return out
}
