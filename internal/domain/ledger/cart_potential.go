package ledger

import (
	"fmt"

	"eco-rewards/internal/domain/catalog"
)

// CartOptions カート内容に関する選択
type CartOptions struct {
	DeliveryMethod    string
	ReusablePackaging bool
	PlantBasedCount   int64
	IsLocalChef       bool
}

// PotentialLine 獲得見込みの内訳
type PotentialLine struct {
	Label   string `json:"label"`
	Credits int64  `json:"credits"`
}

// CartPotential 注文で獲得できる見込みクレジット
type CartPotential struct {
	Total     int64           `json:"total"`
	Breakdown []PotentialLine `json:"breakdown"`
}

// CalculateCartPotential 配送方法・容器・食事・シェフの順で見込みクレジットを計算
func CalculateCartPotential(values catalog.CreditValues, opts CartOptions) CartPotential {
	result := CartPotential{Breakdown: []PotentialLine{}}
	add := func(label string, credits int64) {
		result.Total += credits
		result.Breakdown = append(result.Breakdown, PotentialLine{Label: label, Credits: credits})
	}

	switch opts.DeliveryMethod {
	case "bike":
		add("Bike Delivery", values.Value(catalog.CreditBikeDelivery))
	case "walk":
		add("Walk Delivery", values.Value(catalog.CreditWalkDelivery))
	}

	if opts.ReusablePackaging {
		add("Reusable Packaging", values.Value(catalog.CreditReusablePackaging))
	}

	if opts.PlantBasedCount > 0 {
		add(fmt.Sprintf("%d Plant-Based Items", opts.PlantBasedCount), opts.PlantBasedCount*values.Value(catalog.CreditPlantBasedMeal))
	}

	if opts.IsLocalChef {
		add("Local Chef", values.Value(catalog.CreditLocalChefBonus))
	}

	return result
}
