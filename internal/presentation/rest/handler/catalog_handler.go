package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eco-rewards/internal/domain/catalog"
)

// CatalogResponse カタログレスポンス
type CatalogResponse struct {
	Tiers        []catalog.Tier             `json:"tiers"`
	Achievements []catalog.Achievement      `json:"achievements"`
	Options      []catalog.RedemptionOption `json:"redemption_options"`
	CreditValues catalog.CreditValues       `json:"credit_values"`
}

// CatalogHandler カタログ参照ハンドラー
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler 新しいCatalogHandlerを作成
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// GetCatalog ティア・実績・交換オプション・付与ルールを返す
// @Summary カタログを取得
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogResponse
// @Router /catalog [get]
func (h *CatalogHandler) GetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, CatalogResponse{
		Tiers:        h.catalog.Tiers(),
		Achievements: h.catalog.Achievements(),
		Options:      h.catalog.Options(),
		CreditValues: h.catalog.Credits(),
	})
}
