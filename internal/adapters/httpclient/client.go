package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Endpoint describes one upstream HTTP call. Method, headers and body can be
// overridden from config; only URL is required.
type Endpoint struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
}

func fetchJSON(ctx context.Context, client *http.Client, ep Endpoint, out any) error {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	var body *strings.Reader
	if ep.Body != "" {
		body = strings.NewReader(ep.Body)
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request for %q: %w", ep.URL, err)
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	if ep.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request for %q: %w", ep.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d for %q: %s", resp.StatusCode, ep.URL, resp.Status)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %q: %w", ep.URL, err)
	}
	return nil
}

// stripQuote removes the quote-currency suffix from an instrument identifier
// and uppercases the remainder. It reports false when the identifier does not
// carry the suffix or is nothing but the suffix.
func stripQuote(symbol, quote string) (string, bool) {
	if len(symbol) <= len(quote) || !strings.HasSuffix(symbol, quote) {
		return "", false
	}
	return strings.ToUpper(strings.TrimSuffix(symbol, quote)), true
}

// parseFractionPct parses an exchange-reported fractional rate string and
// converts it to percent. An empty or malformed value reports false.
func parseFractionPct(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * 100, true
}

func parseMillis(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
