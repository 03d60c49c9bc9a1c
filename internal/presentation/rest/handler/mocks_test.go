package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	rewardsapp "eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/cart"
	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/domain/trip"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
	restmiddleware "eco-rewards/internal/presentation/rest/middleware"
)

// MockLedgerRepository モック台帳リポジトリ
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByUserID(ctx context.Context, userID string) (*ledger.CreditLedger, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CreditLedger), args.Error(1)
}

func (m *MockLedgerRepository) Save(ctx context.Context, l *ledger.CreditLedger) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLedgerRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockCartRepository モックカートリポジトリ
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTripVerifier モックトリップ検証サービス
type MockTripVerifier struct {
	mock.Mock
}

func (m *MockTripVerifier) VerifyTrip(ctx context.Context, req *trip.VerificationRequest) (*trip.VerificationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.VerificationResult), args.Error(1)
}

// MockPhotoVerifier モック画像検証サービス
type MockPhotoVerifier struct {
	mock.Mock
}

func (m *MockPhotoVerifier) VerifyEcoProof(ctx context.Context, req *trip.EcoProofRequest) (*trip.EcoProofResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.EcoProofResult), args.Error(1)
}

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
}

func newTestMetrics(t *testing.T) *otelinfra.Metrics {
	t.Helper()
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return metrics
}

// newTestRewardsService 固定時刻・連番IDの台帳を使う報酬サービス
func newTestRewardsService(t *testing.T, repo *MockLedgerRepository) *rewardsapp.RewardsApplicationService {
	t.Helper()

	fixed := time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	seq := 0
	return rewardsapp.NewRewardsApplicationService(
		repo,
		catalog.Default(),
		nil,
		newTestLogger(),
		newTestMetrics(t),
		ledger.WithClock(func() time.Time { return fixed }),
		ledger.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
}

// serve エラーハンドリングミドルウェアを通してハンドラーを実行する
func serve(t *testing.T, h echo.HandlerFunc, req *http.Request, userID string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for name, value := range params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	handlerFunc := restmiddleware.ErrorHandlerMiddleware(newTestLogger())(h)
	require.NoError(t, handlerFunc(c))
	return rec
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
