package rewards

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/domain/trip"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

// DefaultEcoTripDistanceKm 距離が分からないエコ移動に用いる距離
const DefaultEcoTripDistanceKm = 2.0

// ErrTierTooLow 交換に必要なティアに達していない
var ErrTierTooLow = errors.New("tier too low for redemption option")

// session ユーザーごとの台帳とその書き込みロック
type session struct {
	mu     sync.Mutex
	ledger *ledger.CreditLedger
}

// RewardsApplicationService 報酬アプリケーションサービス
// 台帳はプロセス内でユーザーごとに保持し、変更のたびに保存する
type RewardsApplicationService struct {
	ledgerRepo ledger.LedgerRepository
	catalog    *catalog.Catalog
	notifier   Notifier
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	ledgerOpts []ledger.Option

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRewardsApplicationService 新しいRewardsApplicationServiceを作成
func NewRewardsApplicationService(
	ledgerRepo ledger.LedgerRepository,
	cat *catalog.Catalog,
	notifier Notifier,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	ledgerOpts ...ledger.Option,
) *RewardsApplicationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &RewardsApplicationService{
		ledgerRepo: ledgerRepo,
		catalog:    cat,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("rewards-service"),
		ledgerOpts: ledgerOpts,
		sessions:   make(map[string]*session),
	}
}

// Catalog 使用中のカタログを返す
func (s *RewardsApplicationService) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *RewardsApplicationService) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

// withLedger ユーザーの台帳をロックした状態で fn を実行する
// 初回は保存データを読み込み、破損していれば初期化して削除する
func (s *RewardsApplicationService) withLedger(ctx context.Context, userID string, fn func(*ledger.CreditLedger) error) error {
	if _, err := ledger.NewCreditLedger(userID); err != nil {
		return err
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ledger == nil {
		l, err := s.load(ctx, userID)
		if err != nil {
			return err
		}
		sess.ledger = l
	}
	return fn(sess.ledger)
}

func (s *RewardsApplicationService) load(ctx context.Context, userID string) (*ledger.CreditLedger, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.load")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	l, err := s.ledgerRepo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		return l, nil
	case errors.Is(err, ledger.ErrLedgerNotFound):
		return ledger.NewCreditLedger(userID, s.ledgerOpts...)
	case errors.Is(err, ledger.ErrCorruptLedger):
		s.logger.Warn(ctx, "Stored ledger is corrupt, resetting", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		if delErr := s.ledgerRepo.Delete(ctx, userID); delErr != nil {
			s.logger.Error(ctx, "Failed to delete corrupt ledger", delErr, map[string]interface{}{
				"user_id": userID,
			})
			s.metrics.RecordPersistenceError(ctx, "ledger")
		}
		return ledger.NewCreditLedger(userID, s.ledgerOpts...)
	default:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to load ledger", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
}

// commit 実績を判定して保存し、結果をまとめる
// 保存の失敗はログに残し、メモリ上の状態を正とする
func (s *RewardsApplicationService) commit(ctx context.Context, l *ledger.CreditLedger, tierBefore catalog.TierID) Outcome {
	unlocked := l.CheckAchievements(s.catalog)
	tier := l.CurrentTier(s.catalog)

	out := Outcome{
		TotalCredits:    l.TotalCredits(),
		LifetimeCredits: l.LifetimeCredits(),
		CO2SavedGrams:   l.CO2SavedGrams(),
		Tier:            tier.ID,
		TierChanged:     tier.ID != tierBefore,
		Unlocked:        unlocked,
	}

	if err := s.ledgerRepo.Save(ctx, l); err != nil {
		s.logger.Error(ctx, "Failed to save ledger", err, map[string]interface{}{
			"user_id": l.UserID(),
		})
		s.metrics.RecordPersistenceError(ctx, "ledger")
	}

	for _, a := range unlocked {
		s.metrics.RecordAchievementUnlocked(ctx, a.ID)
		if a.Credits > 0 {
			s.metrics.RecordCreditsAwarded(ctx, "achievement", a.Credits)
		}
		s.logger.Info(ctx, "Achievement unlocked", map[string]interface{}{
			"user_id":        l.UserID(),
			"achievement_id": a.ID,
			"credits":        a.Credits,
		})
		s.notifier.Publish(ctx, l.UserID(), EventAchievementUnlocked, a)
	}
	if out.TierChanged {
		s.notifier.Publish(ctx, l.UserID(), EventTierChanged, map[string]interface{}{
			"from": tierBefore,
			"to":   tier.ID,
			"tier": tier,
		})
	}
	return out
}

// GetSummary 台帳の概要を取得
func (s *RewardsApplicationService) GetSummary(ctx context.Context, userID string) (*SummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.GetSummary")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var resp *SummaryResponse
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		resp = &SummaryResponse{
			UserID:            l.UserID(),
			TotalCredits:      l.TotalCredits(),
			LifetimeCredits:   l.LifetimeCredits(),
			CO2SavedGrams:     l.CO2SavedGrams(),
			Tier:              l.CurrentTier(s.catalog),
			Achievements:      l.Achievements(),
			ActiveRedemptions: l.ActiveRedemptions(),
			Stats:             l.Stats(),
			UpdatedAt:         l.UpdatedAt(),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// GetHistory 獲得履歴と交換履歴を新しい順に取得
// limit が0以下の場合は全件
func (s *RewardsApplicationService) GetHistory(ctx context.Context, userID string, limit int) (*HistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.GetHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("limit", limit),
	)

	var resp *HistoryResponse
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		earnings := l.EarningHistory()
		redemptions := l.Redemptions()
		if limit > 0 {
			if len(earnings) > limit {
				earnings = earnings[:limit]
			}
			if len(redemptions) > limit {
				redemptions = redemptions[:limit]
			}
		}
		resp = &HistoryResponse{Earnings: earnings, Redemptions: redemptions}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// AwardCredits クレジットを付与
func (s *RewardsApplicationService) AwardCredits(ctx context.Context, req *AwardRequest) (*AwardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.AwardCredits")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int64("amount", req.Amount),
		attribute.String("reason", req.Reason),
	)

	s.logger.Info(ctx, "Awarding credits", map[string]interface{}{
		"user_id": req.UserID,
		"amount":  req.Amount,
		"reason":  req.Reason,
	})

	var resp *AwardResponse
	err := s.withLedger(ctx, req.UserID, func(l *ledger.CreditLedger) error {
		tierBefore := l.CurrentTier(s.catalog).ID
		earning := l.AwardCredits(req.Amount, req.Reason, req.Metadata)
		s.metrics.RecordCreditsAwarded(ctx, "award", earning.Amount)
		resp = &AwardResponse{
			Earning: earning,
			Outcome: s.commit(ctx, l, tierBefore),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to award credits", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		s.metrics.RecordError(ctx, "award_failed")
		return nil, fmt.Errorf("failed to award credits: %w", err)
	}
	return resp, nil
}

// AddCO2Savings CO2削減量を加算
func (s *RewardsApplicationService) AddCO2Savings(ctx context.Context, userID string, grams float64) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.AddCO2Savings")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Float64("grams", grams),
	)

	var out Outcome
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		tierBefore := l.CurrentTier(s.catalog).ID
		if err := l.AddCO2Savings(grams); err != nil {
			return err
		}
		if grams > 0 {
			s.metrics.RecordCO2Saved(ctx, "manual", grams)
		}
		out = s.commit(ctx, l, tierBefore)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to add co2 savings: %w", err)
	}
	return &out, nil
}

// UpdateStats 行動統計を部分更新
func (s *RewardsApplicationService) UpdateStats(ctx context.Context, userID string, update ledger.StatsUpdate) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.UpdateStats")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var out Outcome
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		tierBefore := l.CurrentTier(s.catalog).ID
		l.UpdateStats(update)
		out = s.commit(ctx, l, tierBefore)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}
	return &out, nil
}

// Redeem クレジットを交換オプションと交換
// ティア条件はここで確認する
func (s *RewardsApplicationService) Redeem(ctx context.Context, req *RedeemRequest) (*RedeemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.Redeem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("option_id", req.OptionID),
	)

	s.logger.Info(ctx, "Redeeming credits", map[string]interface{}{
		"user_id":   req.UserID,
		"option_id": req.OptionID,
	})

	option, err := s.catalog.OptionByID(req.OptionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var resp *RedeemResponse
	err = s.withLedger(ctx, req.UserID, func(l *ledger.CreditLedger) error {
		tierBefore := l.CurrentTier(s.catalog).ID
		if option.MinTier != "" {
			ok, err := s.catalog.MeetsTier(tierBefore, option.MinTier)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTierTooLow
			}
		}

		redemption, err := l.Redeem(option)
		if err != nil {
			return err
		}
		s.metrics.RecordCreditsRedeemed(ctx, option.ID, option.Cost)
		resp = &RedeemResponse{
			Redemption: redemption,
			Outcome:    s.commit(ctx, l, tierBefore),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, ledger.ErrInsufficientCredits) || errors.Is(err, ErrTierTooLow) {
			s.logger.Warn(ctx, "Redemption refused", map[string]interface{}{
				"user_id":   req.UserID,
				"option_id": req.OptionID,
				"reason":    err.Error(),
			})
			return nil, err
		}
		s.logger.Error(ctx, "Failed to redeem", err, map[string]interface{}{
			"user_id":   req.UserID,
			"option_id": req.OptionID,
		})
		s.metrics.RecordError(ctx, "redeem_failed")
		return nil, fmt.Errorf("failed to redeem: %w", err)
	}
	return resp, nil
}

// UseRedemption 交換済みの特典を使用済みにする
func (s *RewardsApplicationService) UseRedemption(ctx context.Context, userID, redemptionID string) error {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.UseRedemption")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("redemption_id", redemptionID),
	)

	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		if !l.UseRedemption(redemptionID) {
			return ledger.ErrRedemptionNotFound
		}
		if err := s.ledgerRepo.Save(ctx, l); err != nil {
			s.logger.Error(ctx, "Failed to save ledger", err, map[string]interface{}{
				"user_id": userID,
			})
			s.metrics.RecordPersistenceError(ctx, "ledger")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	return nil
}

// GetTierProgress 次のティアまでの進捗を取得
func (s *RewardsApplicationService) GetTierProgress(ctx context.Context, userID string) (*catalog.TierProgress, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.GetTierProgress")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var progress catalog.TierProgress
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		progress = l.TierProgress(s.catalog)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return &progress, nil
}

// ListAchievements 解除済みと未解除の実績を取得
func (s *RewardsApplicationService) ListAchievements(ctx context.Context, userID string) (*AchievementsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.ListAchievements")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	var resp *AchievementsResponse
	err := s.withLedger(ctx, userID, func(l *ledger.CreditLedger) error {
		resp = &AchievementsResponse{
			Unlocked: l.UnlockedAchievements(s.catalog),
			Locked:   l.LockedAchievements(s.catalog),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// CalculateCartPotential 注文内容から獲得見込みクレジットを計算
func (s *RewardsApplicationService) CalculateCartPotential(ctx context.Context, opts ledger.CartOptions) ledger.CartPotential {
	_, span := s.tracer.Start(ctx, "RewardsApplicationService.CalculateCartPotential")
	defer span.End()

	span.SetAttributes(attribute.String("delivery_method", opts.DeliveryMethod))
	return ledger.CalculateCartPotential(s.catalog.Credits(), opts)
}

// RecordEcoTrip 検証済みのエコ移動をクレジット・CO2・統計に反映する
// 初回は FIRST_ECO_PROOF のボーナスを同じ獲得記録に含める
func (s *RewardsApplicationService) RecordEcoTrip(ctx context.Context, req *EcoTripRequest) (*EcoTripResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardsApplicationService.RecordEcoTrip")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("mode", req.Mode.String()),
		attribute.Float64("distance_km", req.DistanceKm),
		attribute.String("source", req.Source),
	)

	var co2 float64
	if req.CO2Grams != nil {
		co2 = *req.CO2Grams
	} else {
		distance := req.DistanceKm
		if distance <= 0 {
			distance = DefaultEcoTripDistanceKm
		}
		co2 = trip.CO2Saved(req.Mode, distance)
	}
	if math.IsNaN(co2) || math.IsInf(co2, 0) || co2 < 0 {
		err := ledger.ErrInvalidCO2Amount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var resp *EcoTripResponse
	err := s.withLedger(ctx, req.UserID, func(l *ledger.CreditLedger) error {
		tierBefore := l.CurrentTier(s.catalog).ID
		stats := l.Stats()
		isFirst := stats.EcoTrips == 0

		credits := s.catalog.CreditValue(catalog.CreditEcoTripVerified)
		if isFirst {
			credits += s.catalog.CreditValue(catalog.CreditFirstEcoProof)
		}

		earning := l.AwardCredits(credits, fmt.Sprintf("Eco-trip verified (%s)", req.Mode), map[string]interface{}{
			"type":    "eco_trip",
			"mode":    req.Mode.String(),
			"isFirst": isFirst,
		})
		if err := l.AddCO2Savings(co2); err != nil {
			return err
		}

		update := ledger.StatsUpdate{
			EcoTrips:      ledger.Int64(stats.EcoTrips + 1),
			EcoDeliveries: ledger.Int64(stats.EcoDeliveries + 1),
		}
		switch req.Mode {
		case trip.ModeBike:
			update.BikeDeliveries = ledger.Int64(stats.BikeDeliveries + 1)
		case trip.ModeWalk:
			update.WalkDeliveries = ledger.Int64(stats.WalkDeliveries + 1)
		}
		l.UpdateStats(update)

		s.metrics.RecordCreditsAwarded(ctx, "eco_trip", credits)
		s.metrics.RecordCO2Saved(ctx, req.Source, co2)

		resp = &EcoTripResponse{
			Earning:       earning,
			Credits:       credits,
			IsFirst:       isFirst,
			CO2SavedGrams: co2,
			Outcome:       s.commit(ctx, l, tierBefore),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to record eco trip", err, map[string]interface{}{
			"user_id": req.UserID,
			"mode":    req.Mode.String(),
		})
		s.metrics.RecordError(ctx, "eco_trip_failed")
		return nil, fmt.Errorf("failed to record eco trip: %w", err)
	}

	s.logger.Info(ctx, "Eco trip recorded", map[string]interface{}{
		"user_id":  req.UserID,
		"mode":     req.Mode.String(),
		"credits":  resp.Credits,
		"co2_g":    resp.CO2SavedGrams,
		"is_first": resp.IsFirst,
	})
	return resp, nil
}
