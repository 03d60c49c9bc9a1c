package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"eco-rewards/internal/domain/trip"
)

// TripClient トリップ検証サービスのHTTPクライアント
type TripClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTripClient 新しいTripClientを作成
func NewTripClient(baseURL string, timeout time.Duration) (*TripClient, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &TripClient{
		baseURL:    base,
		httpClient: newHTTPClient(timeout),
	}, nil
}

// VerifyTrip 記録したトリップを検証サービスへ送る
// 通信失敗と 2xx 以外の応答は trip.ErrVerifierUnavailable をラップして返す
func (c *TripClient) VerifyTrip(ctx context.Context, req *trip.VerificationRequest) (*trip.VerificationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("verifier: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/trips/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("verifier: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", trip.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var result trip.VerificationResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", trip.ErrVerifierUnavailable, err)
	}
	if result.Status == "" {
		if result.IsVerified {
			result.Status = trip.StatusVerified
		} else {
			result.Status = trip.StatusRejected
		}
	}
	if result.Reasons == nil {
		result.Reasons = []string{}
	}
	return &result, nil
}
