package reward

import "biryani-club/internal/models"

// DefaultRewards is the spin wheel. Weights sum to 100.
func DefaultRewards() []models.Reward {
	return []models.Reward{
		{Name: "Free Soft Drink", Emoji: "🥤", Effect: models.MustFreeItem("Soft Drink (500 ml)"), Weight: 25},
		{Name: "₹20 off", Emoji: "💸", Effect: models.MustDiscount(20), Weight: 20},
		{Name: "Free Veg Roll", Emoji: "🌯", Effect: models.MustFreeItem("Veg Roll"), Weight: 15},
		{Name: "Better luck next time", Emoji: "❌", Effect: models.NoEffect, Weight: 30},
		{Name: "RARE ★ Free Chicken Biryani", Emoji: "🎉⭐", Effect: models.MustFreeItem("Chicken Biryani (Full)"), Weight: 3},
		{Name: "₹50 off", Emoji: "🔥", Effect: models.MustDiscount(50), Weight: 5},
		{Name: "Free Paneer Roll", Emoji: "🧀", Effect: models.MustFreeItem("Paneer Roll"), Weight: 2},
	}
}
