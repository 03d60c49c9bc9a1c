package trip

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/trip"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// EcoTripRecorder 検証済みトリップを台帳に反映する
type EcoTripRecorder interface {
	RecordEcoTrip(ctx context.Context, req *rewards.EcoTripRequest) (*rewards.EcoTripResponse, error)
}

// activeTrip 進行中のトリップ
// tracker への操作は mu で直列化する
type activeTrip struct {
	mu        sync.Mutex
	id        string
	userID    string
	startedAt time.Time
	tracker   *trip.Tracker
	stop      chan struct{}
}

// Option TripApplicationService の生成オプション
type Option func(*TripApplicationService)

// WithTickInterval 経過時間を進める間隔を差し替える
func WithTickInterval(d time.Duration) Option {
	return func(s *TripApplicationService) {
		s.tickInterval = d
	}
}

// TripApplicationService トリップアプリケーションサービス
type TripApplicationService struct {
	verifier trip.Verifier
	recorder EcoTripRecorder
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer

	tickInterval time.Duration
	now          func() time.Time

	mu     sync.Mutex
	trips  map[string]*activeTrip
	closed bool
	wg     sync.WaitGroup
}

// NewTripApplicationService 新しいTripApplicationServiceを作成
func NewTripApplicationService(
	verifier trip.Verifier,
	recorder EcoTripRecorder,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	opts ...Option,
) *TripApplicationService {
	s := &TripApplicationService{
		verifier:     verifier,
		recorder:     recorder,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("trip-service"),
		tickInterval: time.Second,
		now:          time.Now,
		trips:        make(map[string]*activeTrip),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartTrip トリップを開始し、経過時間の計測を始める
func (s *TripApplicationService) StartTrip(ctx context.Context, userID string) (*StartTripResponse, error) {
	ctx, span := s.tracer.Start(ctx, "TripApplicationService.StartTrip")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	t := &activeTrip{
		id:        id.String(),
		userID:    userID,
		startedAt: s.now(),
		tracker:   trip.NewTracker(),
		stop:      make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("trip service is shut down")
	}
	s.trips[t.id] = t
	s.wg.Add(1)
	s.mu.Unlock()

	go s.tick(t)

	span.SetAttributes(attribute.String("trip_id", t.id))
	s.logger.Info(ctx, "Trip started", map[string]interface{}{
		"user_id": userID,
		"trip_id": t.id,
	})

	return &StartTripResponse{TripID: t.id, StartedAt: t.startedAt}, nil
}

// tick 停止するまで一定間隔で経過時間を進める
func (s *TripApplicationService) tick(t *activeTrip) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.tracker.Tick()
			t.mu.Unlock()
		}
	}
}

// lookup 本人のトリップを取得する
func (s *TripApplicationService) lookup(userID, tripID string) (*activeTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[tripID]
	if !ok || t.userID != userID {
		return nil, trip.ErrTripNotFound
	}
	return t, nil
}

// AcceptFix 測位をトリップに取り込む
func (s *TripApplicationService) AcceptFix(ctx context.Context, req *FixRequest) (*FixResponse, error) {
	ctx, span := s.tracer.Start(ctx, "TripApplicationService.AcceptFix")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("trip_id", req.TripID),
		attribute.Float64("accuracy", req.Sample.Accuracy),
	)

	t, err := s.lookup(req.UserID, req.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	t.mu.Lock()
	result := t.tracker.AcceptFix(req.Sample)
	state := t.tracker.Snapshot()
	t.mu.Unlock()

	s.metrics.RecordTripFix(ctx, string(result))
	span.SetAttributes(attribute.String("fix_result", string(result)))

	if result == trip.FixRejectedEnded {
		return nil, trip.ErrTripEnded
	}
	return &FixResponse{Result: result, State: state}, nil
}

// GetTrip 進行中トリップの状態を取得
func (s *TripApplicationService) GetTrip(ctx context.Context, userID, tripID string) (*TripStatusResponse, error) {
	_, span := s.tracer.Start(ctx, "TripApplicationService.GetTrip")
	defer span.End()

	t, err := s.lookup(userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	t.mu.Lock()
	state := t.tracker.Snapshot()
	t.mu.Unlock()

	return &TripStatusResponse{TripID: t.id, StartedAt: t.startedAt, State: state}, nil
}

// EndTrip トリップを終了して検証に送る
// 検証済みなら台帳に反映し、検証サービスが使えない場合は pending_review とする
func (s *TripApplicationService) EndTrip(ctx context.Context, req *EndTripRequest) (*EndTripResponse, error) {
	ctx, span := s.tracer.Start(ctx, "TripApplicationService.EndTrip")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("trip_id", req.TripID),
	)

	s.mu.Lock()
	t, ok := s.trips[req.TripID]
	if !ok || t.userID != req.UserID {
		s.mu.Unlock()
		err := trip.ErrTripNotFound
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	delete(s.trips, req.TripID)
	s.mu.Unlock()

	close(t.stop)

	t.mu.Lock()
	verification := t.tracker.End()
	state := t.tracker.Snapshot()
	t.mu.Unlock()

	verification.TripID = t.id
	verification.UserID = t.userID
	verification.StepCount = req.StepCount

	resp := &EndTripResponse{TripID: t.id, State: state}

	s.logger.Info(ctx, "Trip ended", map[string]interface{}{
		"user_id":      req.UserID,
		"trip_id":      t.id,
		"mode":         state.Mode.String(),
		"distance_km":  state.DistanceKm,
		"duration_sec": state.DurationSec,
		"trace_points": state.TracePoints,
	})

	result, err := s.verifier.VerifyTrip(ctx, &verification)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn(ctx, "Trip verifier unavailable, marking for review", map[string]interface{}{
			"user_id": req.UserID,
			"trip_id": t.id,
			"error":   err.Error(),
		})
		s.metrics.RecordError(ctx, "trip_verifier_unavailable")
		resp.Status = trip.StatusPendingReview
		return resp, nil
	}
	resp.Verification = result

	if !result.IsVerified {
		resp.Status = result.Status
		if resp.Status == "" || resp.Status == trip.StatusVerified {
			resp.Status = trip.StatusRejected
		}
		span.SetAttributes(attribute.String("trip_status", resp.Status))
		return resp, nil
	}

	carbon := state.CarbonGrams
	reward, err := s.recorder.RecordEcoTrip(ctx, &rewards.EcoTripRequest{
		UserID:     req.UserID,
		Mode:       state.Mode,
		DistanceKm: state.DistanceKm,
		CO2Grams:   &carbon,
		Source:     "trip",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to record verified trip: %w", err)
	}

	resp.Status = trip.StatusVerified
	resp.Reward = reward
	span.SetAttributes(attribute.String("trip_status", resp.Status))
	return resp, nil
}

// ActiveTrips 進行中のトリップ数
func (s *TripApplicationService) ActiveTrips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trips)
}

// Close 全トリップの計測を止める
func (s *TripApplicationService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, t := range s.trips {
		close(t.stop)
		delete(s.trips, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
