package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	ecoproofapp "eco-rewards/internal/application/ecoproof"
)

// EcoProofResponse 写真証明レスポンス
type EcoProofResponse struct {
	Status     string                 `json:"status" example:"verified"`
	Verified   bool                   `json:"verified"`
	Message    string                 `json:"message,omitempty"`
	Confidence float64                `json:"confidence" example:"0.92"`
	Fallback   bool                   `json:"fallback"`
	Reward     *EcoTripRewardResponse `json:"reward,omitempty"`
}

// EcoProofHandler 写真によるエコ移動証明ハンドラー
type EcoProofHandler struct {
	ecoProofService *ecoproofapp.EcoProofApplicationService
}

// NewEcoProofHandler 新しいEcoProofHandlerを作成
func NewEcoProofHandler(ecoProofService *ecoproofapp.EcoProofApplicationService) *EcoProofHandler {
	return &EcoProofHandler{ecoProofService: ecoProofService}
}

// VerifyEcoProof 写真証明ハンドラー
// @Summary 写真でエコ移動を証明
// @Tags eco-proof
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "写真"
// @Param claimed_mode formData string true "移動手段" Enums(walk,bike,run,scooter)
// @Success 200 {object} EcoProofResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /me/eco-proof [post]
func (h *EcoProofHandler) VerifyEcoProof(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open file")
	}
	defer f.Close()

	// 上限を1バイト超えて読めばサイズ超過を判定できる
	image, err := io.ReadAll(io.LimitReader(f, ecoproofapp.MaxImageBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}

	resp, err := h.ecoProofService.VerifyEcoProof(c.Request().Context(), &ecoproofapp.VerifyRequest{
		UserID:      userID,
		ClaimedMode: c.FormValue("claimed_mode"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Image:       image,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, EcoProofResponse{
		Status:     resp.Status,
		Verified:   resp.Verified,
		Message:    resp.Message,
		Confidence: resp.Confidence,
		Fallback:   resp.Fallback,
		Reward:     toEcoTripReward(resp.Reward),
	})
}
