package handler

import (
	"context"
	"encoding/json"
	"errors"

	rewardsapp "eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/catalog"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/presentation/grpc/interceptor"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// RewardsHandler gRPC報酬サービスハンドラー
type RewardsHandler struct {
	rewardsService *rewardsapp.RewardsApplicationService
}

var _ RewardsServiceServer = (*RewardsHandler)(nil)

// NewRewardsHandler 新しいRewardsHandlerを作成
func NewRewardsHandler(rewardsService *rewardsapp.RewardsApplicationService) *RewardsHandler {
	return &RewardsHandler{rewardsService: rewardsService}
}

func userID(ctx context.Context) (string, error) {
	id, ok := interceptor.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "user not authenticated")
	}
	return id, nil
}

// GetSummary 台帳の概要を取得
func (h *RewardsHandler) GetSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.rewardsService.GetSummary(ctx, id)
	if err != nil {
		return nil, handleError(err)
	}

	return toStruct(map[string]interface{}{
		"user_id":            resp.UserID,
		"total_credits":      resp.TotalCredits,
		"lifetime_credits":   resp.LifetimeCredits,
		"co2_saved_grams":    resp.CO2SavedGrams,
		"tier":               resp.Tier,
		"achievements":       nonNil(resp.Achievements),
		"active_redemptions": resp.ActiveRedemptions,
		"stats":              resp.Stats,
	})
}

// AwardCredits クレジットを付与
func (h *RewardsHandler) AwardCredits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	// amount・reason は型を問わず受け付けて変換する
	fields := req.GetFields()
	amount := ledger.CoerceAmount(fields["amount"].AsInterface())
	reason := ledger.CoerceReason(fields["reason"].AsInterface())

	var metadata map[string]interface{}
	if m := fields["metadata"].GetStructValue(); m != nil {
		metadata = m.AsMap()
	}

	resp, err := h.rewardsService.AwardCredits(ctx, &rewardsapp.AwardRequest{
		UserID:   id,
		Amount:   amount,
		Reason:   reason,
		Metadata: metadata,
	})
	if err != nil {
		return nil, handleError(err)
	}

	out := outcomeFields(resp.Outcome)
	out["earning"] = resp.Earning
	return toStruct(out)
}

// Redeem クレジットを交換
func (h *RewardsHandler) Redeem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	optionID := req.GetFields()["option_id"].GetStringValue()
	if optionID == "" {
		return nil, status.Error(codes.InvalidArgument, "option_id is required")
	}

	resp, err := h.rewardsService.Redeem(ctx, &rewardsapp.RedeemRequest{
		UserID:   id,
		OptionID: optionID,
	})
	if err != nil {
		return nil, handleError(err)
	}

	out := outcomeFields(resp.Outcome)
	out["redemption"] = resp.Redemption
	return toStruct(out)
}

// GetTierProgress ティア進捗を取得
func (h *RewardsHandler) GetTierProgress(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := h.rewardsService.GetTierProgress(ctx, id)
	if err != nil {
		return nil, handleError(err)
	}

	return toStruct(map[string]interface{}{
		"current":         progress.Current,
		"progress":        progress.Progress,
		"credits_to_next": progress.CreditsToNext,
		"next":            progress.Next,
	})
}

func outcomeFields(o rewardsapp.Outcome) map[string]interface{} {
	unlocked := make([]string, 0, len(o.Unlocked))
	for _, a := range o.Unlocked {
		unlocked = append(unlocked, a.ID)
	}
	return map[string]interface{}{
		"total_credits":         o.TotalCredits,
		"lifetime_credits":      o.LifetimeCredits,
		"co2_saved_grams":       o.CO2SavedGrams,
		"tier":                  o.Tier,
		"tier_changed":          o.TierChanged,
		"unlocked_achievements": unlocked,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// toStruct JSONを経由して Struct に変換する
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// handleError エラーをgRPCステータスコードに変換
func handleError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredits):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, rewardsapp.ErrTierTooLow):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, catalog.ErrOptionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidUserID):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	// その他のエラーは内部エラーとして扱う
	return status.Error(codes.Internal, "internal server error")
}
