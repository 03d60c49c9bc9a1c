package catalog

// CreditKey クレジット付与ルールのキー
type CreditKey string

const (
	CreditBikeDelivery      CreditKey = "BIKE_DELIVERY"
	CreditWalkDelivery      CreditKey = "WALK_DELIVERY"
	CreditScooterDelivery   CreditKey = "SCOOTER_DELIVERY"
	CreditCarDelivery       CreditKey = "CAR_DELIVERY"
	CreditReusablePackaging CreditKey = "REUSABLE_PACKAGING"
	CreditEcoPackaging      CreditKey = "ECO_PACKAGING"
	CreditStandardPackaging CreditKey = "STANDARD_PACKAGING"
	CreditPlantBasedMeal    CreditKey = "PLANT_BASED_MEAL"
	CreditVegetarianMeal    CreditKey = "VEGETARIAN_MEAL"
	CreditLocalIngredient   CreditKey = "LOCAL_INGREDIENT"
	CreditLocalChefBonus    CreditKey = "LOCAL_CHEF_BONUS"
	CreditNearbyChefBonus   CreditKey = "NEARBY_CHEF_BONUS"
	CreditBulkOrderBonus    CreditKey = "BULK_ORDER_BONUS"
	CreditEcoTripVerified   CreditKey = "ECO_TRIP_VERIFIED"
	CreditFirstEcoProof     CreditKey = "FIRST_ECO_PROOF"
	CreditWeeklyStreakBonus CreditKey = "WEEKLY_STREAK_BONUS"
	CreditMonthlyStreak     CreditKey = "MONTHLY_STREAK_BONUS"
)

// CreditValues 行動ごとの付与クレジット表
type CreditValues map[CreditKey]int64

// Value キーに対応するクレジットを返す（未定義は0）
func (v CreditValues) Value(key CreditKey) int64 {
	return v[key]
}
