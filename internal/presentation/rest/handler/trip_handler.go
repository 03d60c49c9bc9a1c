package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	rewardsapp "eco-rewards/internal/application/rewards"
	tripapp "eco-rewards/internal/application/trip"
	"eco-rewards/internal/domain/trip"
)

// TripHandler トリップ関連ハンドラー
type TripHandler struct {
	tripService *tripapp.TripApplicationService
	now         func() time.Time
}

// NewTripHandler 新しいTripHandlerを作成
func NewTripHandler(tripService *tripapp.TripApplicationService) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		now:         time.Now,
	}
}

// StartTrip トリップ開始ハンドラー
// @Summary トリップを開始
// @Tags trips
// @Produce json
// @Security Bearer
// @Success 201 {object} StartTripResponse
// @Router /me/trips [post]
func (h *TripHandler) StartTrip(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.tripService.StartTrip(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, StartTripResponse{
		TripID:    resp.TripID,
		StartedAt: resp.StartedAt.UTC(),
	})
}

// SubmitFix 測位送信ハンドラー
// @Summary 測位を送信
// @Tags trips
// @Accept json
// @Produce json
// @Security Bearer
// @Param trip_id path string true "トリップID"
// @Param request body FixRequest true "測位"
// @Success 200 {object} FixResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "終了済み"
// @Failure 429 {object} ErrorResponse
// @Router /me/trips/{trip_id}/fixes [post]
func (h *TripHandler) SubmitFix(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody FixRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.Latitude == nil || reqBody.Longitude == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "latitude and longitude are required")
	}
	lat, lon := *reqBody.Latitude, *reqBody.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return echo.NewHTTPError(http.StatusBadRequest, "coordinates out of range")
	}

	ts := h.now()
	if reqBody.Timestamp != nil {
		ts = *reqBody.Timestamp
	}

	resp, err := h.tripService.AcceptFix(c.Request().Context(), &tripapp.FixRequest{
		UserID: userID,
		TripID: c.Param("trip_id"),
		Sample: trip.Sample{
			Latitude:  lat,
			Longitude: lon,
			Speed:     reqBody.Speed,
			Accuracy:  reqBody.Accuracy,
			Timestamp: ts,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, FixResponse{
		Result: string(resp.Result),
		State:  toTripStateResponse(resp.State),
	})
}

// GetTrip 進行中トリップの状態取得ハンドラー
func (h *TripHandler) GetTrip(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.tripService.GetTrip(c.Request().Context(), userID, c.Param("trip_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TripStatusResponse{
		TripID:    resp.TripID,
		StartedAt: resp.StartedAt.UTC(),
		State:     toTripStateResponse(resp.State),
	})
}

// EndTrip トリップ終了ハンドラー
// 検証サービスが使えない場合も 200 で status=pending_review を返す
// @Summary トリップを終了して検証
// @Tags trips
// @Accept json
// @Produce json
// @Security Bearer
// @Param trip_id path string true "トリップID"
// @Param request body EndTripRequest false "歩数"
// @Success 200 {object} EndTripResponse
// @Failure 404 {object} ErrorResponse
// @Router /me/trips/{trip_id}/end [post]
func (h *TripHandler) EndTrip(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody EndTripRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&reqBody); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if reqBody.StepCount < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "step_count must not be negative")
	}

	resp, err := h.tripService.EndTrip(c.Request().Context(), &tripapp.EndTripRequest{
		UserID:    userID,
		TripID:    c.Param("trip_id"),
		StepCount: reqBody.StepCount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, EndTripResponse{
		TripID:       resp.TripID,
		Status:       resp.Status,
		Verification: resp.Verification,
		State:        toTripStateResponse(resp.State),
		Reward:       toEcoTripReward(resp.Reward),
	})
}

func toEcoTripReward(r *rewardsapp.EcoTripResponse) *EcoTripRewardResponse {
	if r == nil {
		return nil
	}
	return &EcoTripRewardResponse{
		Credits:         r.Credits,
		IsFirst:         r.IsFirst,
		CO2SavedGrams:   r.CO2SavedGrams,
		OutcomeResponse: toOutcomeResponse(r.Outcome),
	}
}
