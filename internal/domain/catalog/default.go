package catalog

// 標準カタログ定義

func int64p(v int64) *int64 { return &v }

func float64p(v float64) *float64 { return &v }

// DefaultTiers 標準のティア定義
func DefaultTiers() []Tier {
	return []Tier{
		{
			ID:         TierBronze,
			Name:       "Bronze Eco-Friend",
			MinCredits: 0,
			MaxCredits: int64p(99),
			Color:      "#CD7F32",
			Icon:       "leaf-outline",
			Benefits:   []string{"Track carbon savings", "5% off on rewards"},
			NextTier:   TierSilver,
		},
		{
			ID:         TierSilver,
			Name:       "Silver Guardian",
			MinCredits: 100,
			MaxCredits: int64p(499),
			Color:      "#C0C0C0",
			Icon:       "leaf",
			Benefits:   []string{"All Bronze benefits", "Free delivery bonus", "10% off rewards"},
			NextTier:   TierGold,
		},
		{
			ID:         TierGold,
			Name:       "Gold Champion",
			MinCredits: 500,
			MaxCredits: int64p(1499),
			Color:      "#FFD700",
			Icon:       "trophy",
			Benefits:   []string{"All Silver benefits", "Priority support", "15% off rewards", "Exclusive eco-deals"},
			NextTier:   TierPlatinum,
		},
		{
			ID:         TierPlatinum,
			Name:       "Platinum Hero",
			MinCredits: 1500,
			Color:      "#E5E4E2",
			Icon:       "ribbon",
			Benefits:   []string{"All Gold benefits", "VIP status", "20% off rewards", "Climate partner badge"},
		},
	}
}

// DefaultAchievements 標準の実績定義
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: "first_eco_trip", Name: "Eco Beginner", Description: "Complete your first verified eco-trip", Icon: "bicycle", Credits: 50, Criteria: UnlockCriteria{EcoTrips: int64p(1)}, Category: CategoryTrips},
		{ID: "eco_warrior", Name: "Eco Warrior", Description: "Earn 100 carbon credits", Icon: "shield", Credits: 20, Criteria: UnlockCriteria{TotalCredits: int64p(100)}, Category: CategoryMilestone},
		{ID: "bike_lover", Name: "Bike Lover", Description: "Choose bike delivery 10 times", Icon: "bicycle", Credits: 30, Criteria: UnlockCriteria{BikeDeliveries: int64p(10)}, Category: CategoryDelivery},
		{ID: "car_free_champion", Name: "Car-Free Champion", Description: "Complete 25 eco-friendly deliveries", Icon: "car-off", Credits: 75, Criteria: UnlockCriteria{EcoDeliveries: int64p(25)}, Category: CategoryDelivery},
		{ID: "plant_power", Name: "Plant Power", Description: "Order 15 plant-based meals", Icon: "leaf", Credits: 40, Criteria: UnlockCriteria{PlantBasedMeals: int64p(15)}, Category: CategoryFood},
		{ID: "local_supporter", Name: "Local Hero", Description: "Order from 10 different local chefs", Icon: "home", Credits: 35, Criteria: UnlockCriteria{UniqueLocalChefs: int64p(10)}, Category: CategoryCommunity},
		{ID: "reuse_king", Name: "Reuse King", Description: "Choose reusable packaging 20 times", Icon: "repeat", Credits: 30, Criteria: UnlockCriteria{ReusablePackaging: int64p(20)}, Category: CategoryPackaging},
		{ID: "week_streak", Name: "Consistent Eco", Description: "Make eco-friendly orders 7 days in a row", Icon: "flame", Credits: 50, Criteria: UnlockCriteria{DailyStreak: int64p(7)}, Category: CategoryStreak},
		{ID: "climate_saver", Name: "Climate Saver", Description: "Save 10kg CO2 through your choices", Icon: "cloud-off", Credits: 100, Criteria: UnlockCriteria{CO2Saved: float64p(10000)}, Category: CategoryImpact},
		{ID: "eco_master", Name: "Eco Master", Description: "Reach Platinum tier", Icon: "star", Credits: 150, Criteria: UnlockCriteria{Tier: TierPlatinum}, Category: CategoryMilestone},
	}
}

// DefaultOptions 標準の交換オプション定義
func DefaultOptions() []RedemptionOption {
	return []RedemptionOption{
		{ID: "discount_1", Name: "€1 Off Next Order", Description: "Instant discount on your next order", Cost: 100, Type: OptionTypeDiscount, Value: 1, Icon: "pricetag", MinTier: TierBronze},
		{ID: "discount_5", Name: "€5 Off Next Order", Description: "Significant savings on your next order", Cost: 450, Type: OptionTypeDiscount, Value: 5, Icon: "pricetag", MinTier: TierSilver},
		{ID: "free_delivery", Name: "Free Delivery", Description: "One free delivery on any order", Cost: 150, Type: OptionTypeDelivery, Value: 0, Icon: "bicycle", MinTier: TierBronze},
		{ID: "discount_10", Name: "€10 Off Next Order", Description: "Big discount for your commitment", Cost: 850, Type: OptionTypeDiscount, Value: 10, Icon: "gift", MinTier: TierGold},
		{ID: "plant_a_tree", Name: "Plant a Tree", Description: "We plant a real tree in your name", Cost: 500, Type: OptionTypeImpact, Value: 0, Icon: "leaf", MinTier: TierSilver},
		{ID: "exclusive_deal", Name: "Exclusive Chef Deal", Description: "Access to limited eco-chef specials", Cost: 300, Type: OptionTypeSpecial, Value: 0, Icon: "restaurant", MinTier: TierGold},
	}
}

// DefaultCredits 標準の付与ルール
func DefaultCredits() CreditValues {
	return CreditValues{
		CreditBikeDelivery:      15,
		CreditWalkDelivery:      20,
		CreditScooterDelivery:   10,
		CreditCarDelivery:       0,
		CreditReusablePackaging: 5,
		CreditEcoPackaging:      3,
		CreditStandardPackaging: 0,
		CreditPlantBasedMeal:    8,
		CreditVegetarianMeal:    5,
		CreditLocalIngredient:   3,
		CreditLocalChefBonus:    5,
		CreditNearbyChefBonus:   2,
		CreditBulkOrderBonus:    10,
		CreditEcoTripVerified:   25,
		CreditFirstEcoProof:     50,
		CreditWeeklyStreakBonus: 20,
		CreditMonthlyStreak:     100,
	}
}

// Default 標準カタログを返す
func Default() *Catalog {
	return MustNewCatalog(DefaultTiers(), DefaultAchievements(), DefaultOptions(), DefaultCredits())
}
