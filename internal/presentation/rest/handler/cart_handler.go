package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	cartapp "eco-rewards/internal/application/cart"
	"eco-rewards/internal/domain/cart"
)

// CartItemRequest カートへの追加リクエスト
type CartItemRequest struct {
	RestaurantName string  `json:"restaurant_name" example:"Green Kitchen"`
	ID             string  `json:"id" example:"falafel-wrap"`
	Name           string  `json:"name" example:"Falafel Wrap"`
	Price          float64 `json:"price" example:"8.5"`
}

// CartItemRefRequest カートの行を指定するリクエスト
type CartItemRefRequest struct {
	RestaurantName string `json:"restaurant_name" query:"restaurant_name"`
}

// CartResponse カートレスポンス
type CartResponse struct {
	Items     []cart.Item `json:"items"`
	Count     int64       `json:"count" example:"3"`
	Total     float64     `json:"total" example:"25.5"`
	UpdatedAt *time.Time  `json:"updated_at"`
}

// CartHandler カート関連ハンドラー
type CartHandler struct {
	cartService *cartapp.CartApplicationService
}

// NewCartHandler 新しいCartHandlerを作成
func NewCartHandler(cartService *cartapp.CartApplicationService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func toCartResponse(r *cartapp.CartResponse) CartResponse {
	items := r.Items
	if items == nil {
		items = []cart.Item{}
	}
	return CartResponse{
		Items:     items,
		Count:     r.Count,
		Total:     r.Total,
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

// GetCart カート取得ハンドラー
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.cartService.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(resp))
}

// AddItem 商品追加ハンドラー
// @Summary カートに商品を追加
// @Tags cart
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CartItemRequest true "商品"
// @Success 200 {object} CartResponse
// @Router /me/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody CartItemRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.cartService.Add(c.Request().Context(), &cartapp.AddItemRequest{
		UserID:         userID,
		RestaurantName: reqBody.RestaurantName,
		Item: cart.Item{
			ID:    reqBody.ID,
			Name:  reqBody.Name,
			Price: reqBody.Price,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(resp))
}

// DecrementItem 数量を1つ減らすハンドラー
func (h *CartHandler) DecrementItem(c echo.Context) error {
	return h.itemOp(c, h.cartService.Remove)
}

// DeleteItem 行削除ハンドラー
func (h *CartHandler) DeleteItem(c echo.Context) error {
	return h.itemOp(c, h.cartService.Delete)
}

func (h *CartHandler) itemOp(c echo.Context, op func(ctx context.Context, req *cartapp.ItemRequest) (*cartapp.CartResponse, error)) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var reqBody CartItemRefRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := op(c.Request().Context(), &cartapp.ItemRequest{
		UserID:         userID,
		ItemID:         c.Param("item_id"),
		RestaurantName: reqBody.RestaurantName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(resp))
}

// ClearCart カートを空にするハンドラー
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}

	resp, err := h.cartService.Clear(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(resp))
}
