package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-rewards/internal/domain/trip"
)

func TestNewTripClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "正常系: 末尾のスラッシュを除去", baseURL: "http://localhost:8000/", wantErr: false},
		{name: "異常系: 空のURL", baseURL: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTripClient(tt.baseURL, 0)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:8000", c.baseURL)
			assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
		})
	}
}

func TestTripClient_VerifyTrip(t *testing.T) {
	req := &trip.VerificationRequest{
		TripID:      "trip-1",
		UserID:      "user-1",
		Mode:        trip.ModeBike,
		DistanceKm:  2.4,
		DurationSec: 600,
		GPSTrace:    []trip.TracePoint{},
	}

	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantStatus string
		wantScore  float64
	}{
		{
			name:       "正常系: 検証済み",
			status:     http.StatusOK,
			body:       `{"is_verified":true,"score":0.92,"status":"verified","reasons":[]}`,
			wantStatus: trip.StatusVerified,
			wantScore:  0.92,
		},
		{
			name:       "正常系: ステータス省略時は判定結果から補う",
			status:     http.StatusOK,
			body:       `{"is_verified":false,"score":0.1}`,
			wantStatus: trip.StatusRejected,
			wantScore:  0.1,
		},
		{
			name:    "異常系: サーバーエラー",
			status:  http.StatusInternalServerError,
			body:    `boom`,
			wantErr: true,
		},
		{
			name:    "異常系: 不正なJSON",
			status:  http.StatusOK,
			body:    `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/trips/verify", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var got map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.Equal(t, "trip-1", got["trip_id"])
				assert.Equal(t, "bike", got["mode"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewTripClient(server.URL, time.Second)
			require.NoError(t, err)

			result, err := c.VerifyTrip(context.Background(), req)
			if tt.wantErr {
				assert.ErrorIs(t, err, trip.ErrVerifierUnavailable)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.NotNil(t, result.Reasons)
		})
	}
}

func TestTripClient_VerifyTrip_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewTripClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.VerifyTrip(context.Background(), &trip.VerificationRequest{TripID: "trip-1"})
	assert.ErrorIs(t, err, trip.ErrVerifierUnavailable)
}
