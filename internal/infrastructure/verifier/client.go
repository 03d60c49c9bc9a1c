package verifier

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"eco-rewards/internal/domain/trip"
)

// maxResponseBytes 応答本文の読み込み上限
const maxResponseBytes = 1 << 20

// newHTTPClient トレース伝播付きのHTTPクライアント
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func normalizeBaseURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("verifier: base url required")
	}
	return strings.TrimRight(base, "/"), nil
}

// checkResponse 2xx 以外は検証サービス障害として扱う
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: unexpected status %d: %s", trip.ErrVerifierUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
}
