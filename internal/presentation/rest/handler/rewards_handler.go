package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	rewardsapp "eco-rewards/internal/application/rewards"
	"eco-rewards/internal/domain/ledger"
)

// RewardsHandler 報酬関連ハンドラー
type RewardsHandler struct {
	rewardsService *rewardsapp.RewardsApplicationService
}

// NewRewardsHandler 新しいRewardsHandlerを作成
func NewRewardsHandler(rewardsService *rewardsapp.RewardsApplicationService) *RewardsHandler {
	return &RewardsHandler{
		rewardsService: rewardsService,
	}
}

// userIDFrom トークンから取り出したuser_idを返す
func userIDFrom(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}
	return userID, nil
}

// GetSummary 報酬サマリー取得ハンドラー
// @Summary 報酬サマリーを取得
// @Tags rewards
// @Produce json
// @Security Bearer
// @Success 200 {object} SummaryResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/rewards [get]
func (h *RewardsHandler) GetSummary(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.rewardsService.GetSummary(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		UserID:            resp.UserID,
		TotalCredits:      resp.TotalCredits,
		LifetimeCredits:   resp.LifetimeCredits,
		CO2SavedGrams:     resp.CO2SavedGrams,
		Tier:              resp.Tier,
		Achievements:      resp.Achievements,
		ActiveRedemptions: resp.ActiveRedemptions,
		Stats:             resp.Stats,
		UpdatedAt:         formatTime(resp.UpdatedAt),
	})
}

// GetHistory 獲得・交換履歴取得ハンドラー
// @Summary 履歴を取得
// @Tags rewards
// @Produce json
// @Security Bearer
// @Param limit query int false "獲得履歴の最大件数（0以下で全件）"
// @Success 200 {object} HistoryResponse
// @Router /me/rewards/history [get]
func (h *RewardsHandler) GetHistory(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	resp, err := h.rewardsService.GetHistory(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Earnings:    resp.Earnings,
		Redemptions: resp.Redemptions,
	})
}

// GetTierProgress ティア進捗取得ハンドラー
// @Summary ティア進捗を取得
// @Tags rewards
// @Produce json
// @Security Bearer
// @Success 200 {object} TierProgressResponse
// @Router /me/rewards/tier [get]
func (h *RewardsHandler) GetTierProgress(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	progress, err := h.rewardsService.GetTierProgress(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TierProgressResponse{
		Current:       progress.Current,
		Progress:      progress.Progress,
		CreditsToNext: progress.CreditsToNext,
		Next:          progress.Next,
	})
}

// ListAchievements 実績一覧ハンドラー
func (h *RewardsHandler) ListAchievements(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.rewardsService.ListAchievements(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AchievementsResponse{
		Unlocked: toAchievementItems(resp.Unlocked),
		Locked:   toAchievementItems(resp.Locked),
	})
}

// AwardCredits クレジット付与ハンドラー
// @Summary クレジットを付与
// @Description 数値でない値と負の値は0、小数は切り捨てとして扱われます
// @Tags rewards
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body AwardRequest true "付与リクエスト"
// @Success 200 {object} AwardResponse
// @Failure 400 {object} ErrorResponse
// @Router /me/rewards/award [post]
func (h *RewardsHandler) AwardCredits(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody AwardRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.rewardsService.AwardCredits(c.Request().Context(), &rewardsapp.AwardRequest{
		UserID:   userID,
		Amount:   ledger.CoerceAmount(reqBody.Amount),
		Reason:   ledger.CoerceReason(reqBody.Reason),
		Metadata: reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AwardResponse{
		Earning:         resp.Earning,
		OutcomeResponse: toOutcomeResponse(resp.Outcome),
	})
}

// AddCO2Savings CO2削減量加算ハンドラー
func (h *RewardsHandler) AddCO2Savings(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody CO2Request
	if err := c.Bind(&reqBody); err != nil || reqBody.Grams == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "grams is required")
	}
	// 台帳は符号を検証しないため、APIの入口で負の値を拒否する
	if *reqBody.Grams < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "grams must not be negative")
	}

	outcome, err := h.rewardsService.AddCO2Savings(c.Request().Context(), userID, *reqBody.Grams)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOutcomeResponse(*outcome))
}

// UpdateStats 行動統計更新ハンドラー
func (h *RewardsHandler) UpdateStats(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody StatsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.rewardsService.UpdateStats(c.Request().Context(), userID, ledger.StatsUpdate{
		EcoTrips:          reqBody.EcoTrips,
		BikeDeliveries:    reqBody.BikeDeliveries,
		WalkDeliveries:    reqBody.WalkDeliveries,
		EcoDeliveries:     reqBody.EcoDeliveries,
		PlantBasedMeals:   reqBody.PlantBasedMeals,
		ReusablePackaging: reqBody.ReusablePackaging,
		UniqueLocalChefs:  reqBody.UniqueLocalChefs,
		DailyStreak:       reqBody.DailyStreak,
		LastEcoOrderDate:  reqBody.LastEcoOrderDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOutcomeResponse(*outcome))
}

// Redeem クレジット交換ハンドラー
// @Summary クレジットを交換
// @Tags rewards
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body RedeemRequest true "交換リクエスト"
// @Success 200 {object} RedeemResponse
// @Failure 403 {object} ErrorResponse "ティア不足"
// @Failure 404 {object} ErrorResponse "交換オプションなし"
// @Failure 409 {object} ErrorResponse "クレジット不足"
// @Router /me/rewards/redeem [post]
func (h *RewardsHandler) Redeem(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody RedeemRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.OptionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "option_id is required")
	}

	resp, err := h.rewardsService.Redeem(c.Request().Context(), &rewardsapp.RedeemRequest{
		UserID:   userID,
		OptionID: reqBody.OptionID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RedeemResponse{
		Redemption:      resp.Redemption,
		OutcomeResponse: toOutcomeResponse(resp.Outcome),
	})
}

// UseRedemption 交換済み特典の使用ハンドラー
func (h *RewardsHandler) UseRedemption(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	if err := h.rewardsService.UseRedemption(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// CalculateCartPotential 注文で得られるクレジットの見積もりハンドラー
func (h *RewardsHandler) CalculateCartPotential(c echo.Context) error {
	if _, err := userIDFrom(c); err != nil {
		return err
	}

	var reqBody CartPotentialRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	potential := h.rewardsService.CalculateCartPotential(c.Request().Context(), ledger.CartOptions{
		DeliveryMethod:    reqBody.DeliveryMethod,
		ReusablePackaging: reqBody.ReusablePackaging,
		PlantBasedCount:   reqBody.PlantBasedCount,
		IsLocalChef:       reqBody.IsLocalChef,
	})

	return c.JSON(http.StatusOK, potential)
}
