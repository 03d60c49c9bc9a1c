package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tripapp "eco-rewards/internal/application/trip"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/domain/trip"
)

func newTestTripHandler(t *testing.T, verifier *MockTripVerifier, repo *MockLedgerRepository) *TripHandler {
	t.Helper()
	svc := tripapp.NewTripApplicationService(
		verifier,
		newTestRewardsService(t, repo),
		newTestLogger(),
		newTestMetrics(t),
		tripapp.WithTickInterval(time.Hour),
	)
	t.Cleanup(svc.Close)
	return NewTripHandler(svc)
}

func floatPtr(v float64) *float64 { return &v }

func startTrip(t *testing.T, h *TripHandler, userID string) string {
	t.Helper()
	rec := serve(t, h.StartTrip, jsonRequest(t, http.MethodPost, "/api/v1/me/trips", nil), userID, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp StartTripResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.TripID)
	return resp.TripID
}

// submitNorth 北へ一定間隔で測位を送る
func submitNorth(t *testing.T, h *TripHandler, tripID string, steps int, speed float64) {
	t.Helper()
	base := time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)
	for i := 0; i < steps; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		body := FixRequest{
			Latitude:  floatPtr(52.0 + float64(i)*0.001),
			Longitude: floatPtr(4.9),
			Speed:     speed,
			Accuracy:  5,
			Timestamp: &ts,
		}
		rec := serve(t, h.SubmitFix, jsonRequest(t, http.MethodPost, "/", body), "user123", map[string]string{"trip_id": tripID})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTripHandler_SubmitFix(t *testing.T) {
	h := newTestTripHandler(t, new(MockTripVerifier), new(MockLedgerRepository))
	tripID := startTrip(t, h, "user123")

	tests := []struct {
		name           string
		userID         string
		tripID         string
		body           interface{}
		expectedStatus int
		expectedResult string
	}{
		{
			name:           "正常系: 最初の測位",
			userID:         "user123",
			tripID:         tripID,
			body:           FixRequest{Latitude: floatPtr(52.0), Longitude: floatPtr(4.9), Speed: 4, Accuracy: 5},
			expectedStatus: http.StatusOK,
			expectedResult: string(trip.FixOrigin),
		},
		{
			name:           "正常系: 精度不足は破棄",
			userID:         "user123",
			tripID:         tripID,
			body:           FixRequest{Latitude: floatPtr(52.01), Longitude: floatPtr(4.9), Speed: 4, Accuracy: 100},
			expectedStatus: http.StatusOK,
			expectedResult: string(trip.FixRejectedAccuracy),
		},
		{
			name:           "異常系: 座標なし",
			userID:         "user123",
			tripID:         tripID,
			body:           FixRequest{Speed: 4, Accuracy: 5},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: 範囲外の座標",
			userID:         "user123",
			tripID:         tripID,
			body:           FixRequest{Latitude: floatPtr(91), Longitude: floatPtr(4.9)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: 他人のトリップ",
			userID:         "someone-else",
			tripID:         tripID,
			body:           FixRequest{Latitude: floatPtr(52.0), Longitude: floatPtr(4.9)},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "異常系: 存在しないトリップ",
			userID:         "user123",
			tripID:         "missing",
			body:           FixRequest{Latitude: floatPtr(52.0), Longitude: floatPtr(4.9)},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h.SubmitFix, jsonRequest(t, http.MethodPost, "/", tt.body), tt.userID, map[string]string{"trip_id": tt.tripID})
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp FixResponse
				decode(t, rec, &resp)
				assert.Equal(t, tt.expectedResult, resp.Result)
			}
		})
	}
}

func TestTripHandler_GetTrip(t *testing.T) {
	h := newTestTripHandler(t, new(MockTripVerifier), new(MockLedgerRepository))
	tripID := startTrip(t, h, "user123")
	submitNorth(t, h, tripID, 3, 5)

	rec := serve(t, h.GetTrip, jsonRequest(t, http.MethodGet, "/", nil), "user123", map[string]string{"trip_id": tripID})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TripStatusResponse
	decode(t, rec, &resp)
	assert.Equal(t, tripID, resp.TripID)
	assert.Equal(t, "bike", resp.State.Mode)
	assert.InDelta(t, 0.222, resp.State.DistanceKm, 0.01)
	assert.Equal(t, 3, resp.State.TracePoints)
}

func TestTripHandler_EndTrip(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*MockTripVerifier, *MockLedgerRepository)
		body           interface{}
		expectedStatus string
		expectReward   bool
	}{
		{
			name: "正常系: 検証済みは報酬を付与",
			setupMocks: func(v *MockTripVerifier, r *MockLedgerRepository) {
				v.On("VerifyTrip", mock.Anything, mock.MatchedBy(func(req *trip.VerificationRequest) bool {
					return req.UserID == "user123" && req.Mode == trip.ModeBike && req.StepCount == 0
				})).Return(&trip.VerificationResult{IsVerified: true, Score: 0.9, Status: trip.StatusVerified}, nil)
				r.On("FindByUserID", mock.Anything, "user123").Return(nil, ledger.ErrLedgerNotFound)
				r.On("Save", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: trip.StatusVerified,
			expectReward:   true,
		},
		{
			name: "正常系: 却下",
			setupMocks: func(v *MockTripVerifier, r *MockLedgerRepository) {
				v.On("VerifyTrip", mock.Anything, mock.Anything).
					Return(&trip.VerificationResult{IsVerified: false, Status: trip.StatusRejected, Reasons: []string{"speed"}}, nil)
			},
			body:           EndTripRequest{StepCount: 120},
			expectedStatus: trip.StatusRejected,
		},
		{
			name: "正常系: 検証サービス停止は保留",
			setupMocks: func(v *MockTripVerifier, r *MockLedgerRepository) {
				v.On("VerifyTrip", mock.Anything, mock.Anything).Return(nil, trip.ErrVerifierUnavailable)
			},
			expectedStatus: trip.StatusPendingReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockTripVerifier)
			repo := new(MockLedgerRepository)
			tt.setupMocks(verifier, repo)
			h := newTestTripHandler(t, verifier, repo)

			tripID := startTrip(t, h, "user123")
			submitNorth(t, h, tripID, 3, 5)

			rec := serve(t, h.EndTrip, jsonRequest(t, http.MethodPost, "/", tt.body), "user123", map[string]string{"trip_id": tripID})
			require.Equal(t, http.StatusOK, rec.Code)

			var resp EndTripResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.True(t, resp.State.Ended)
			if tt.expectReward {
				require.NotNil(t, resp.Reward)
				assert.True(t, resp.Reward.IsFirst)
				assert.Positive(t, resp.Reward.Credits)
			} else {
				assert.Nil(t, resp.Reward)
			}

			// 終了後は見つからない
			rec = serve(t, h.EndTrip, jsonRequest(t, http.MethodPost, "/", nil), "user123", map[string]string{"trip_id": tripID})
			assert.Equal(t, http.StatusNotFound, rec.Code)
			verifier.AssertExpectations(t)
		})
	}
}

func TestTripHandler_EndTrip_Errors(t *testing.T) {
	verifier := new(MockTripVerifier)
	repo := new(MockLedgerRepository)
	verifier.On("VerifyTrip", mock.Anything, mock.Anything).
		Return(&trip.VerificationResult{IsVerified: true, Status: trip.StatusVerified}, nil)
	repo.On("FindByUserID", mock.Anything, "user123").Return(nil, errors.New("connection refused"))
	h := newTestTripHandler(t, verifier, repo)

	t.Run("異常系: 負の歩数", func(t *testing.T) {
		tripID := startTrip(t, h, "user123")
		rec := serve(t, h.EndTrip, jsonRequest(t, http.MethodPost, "/", EndTripRequest{StepCount: -1}), "user123", map[string]string{"trip_id": tripID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("異常系: 台帳への反映に失敗", func(t *testing.T) {
		tripID := startTrip(t, h, "user123")
		submitNorth(t, h, tripID, 3, 5)
		rec := serve(t, h.EndTrip, jsonRequest(t, http.MethodPost, "/", nil), "user123", map[string]string{"trip_id": tripID})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("異常系: user_idがトークンにない", func(t *testing.T) {
		rec := serve(t, h.StartTrip, jsonRequest(t, http.MethodPost, "/", nil), "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
