package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"time"

	"eco-rewards/internal/domain/trip"
)

// PhotoClient 画像検証サービスのHTTPクライアント
type PhotoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPhotoClient 新しいPhotoClientを作成
func NewPhotoClient(baseURL string, timeout time.Duration) (*PhotoClient, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &PhotoClient{
		baseURL:    base,
		httpClient: newHTTPClient(timeout),
	}, nil
}

// photoResponse 画像検証サービスの応答形式
type photoResponse struct {
	Verified   bool    `json:"verified"`
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
	Metadata   struct {
		Distance *float64 `json:"distance"`
	} `json:"metadata"`
}

// VerifyEcoProof 写真と申告した移動手段を multipart で送る
func (c *PhotoClient) VerifyEcoProof(ctx context.Context, req *trip.EcoProofRequest) (*trip.EcoProofResult, error) {
	body, contentType, err := encodePhoto(req)
	if err != nil {
		return nil, fmt.Errorf("verifier: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-eco-proof", body)
	if err != nil {
		return nil, fmt.Errorf("verifier: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", trip.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var payload photoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", trip.ErrVerifierUnavailable, err)
	}

	result := &trip.EcoProofResult{
		Verified:   payload.Verified,
		Status:     payload.Status,
		Message:    payload.Message,
		Confidence: payload.Confidence,
		DistanceKm: payload.Metadata.Distance,
	}
	if result.Status == "" {
		if result.Verified {
			result.Status = trip.StatusVerified
		} else {
			result.Status = trip.StatusRejected
		}
	}
	return result, nil
}

func encodePhoto(req *trip.EcoProofRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := path.Base(req.Filename)
	if filename == "." || filename == "/" {
		filename = "photo.jpg"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("claimed_mode", req.ClaimedMode.String()); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
