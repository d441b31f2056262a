package catalog

import "biryani-club/internal/models"

var defaultMenu = []Section{
	{
		Name: "Biryani",
		Items: []models.MenuItem{
			{Name: "Veg Biryani", Price: 110, Emoji: "🍛", Category: "vegetarian", Description: "Aromatic basmati rice with mixed vegetables and spices"},
			{Name: "Egg Biryani", Price: 150, Emoji: "🍳", Category: "egg", Description: "Flavorful rice with boiled eggs and traditional spices"},
			{Name: "Chicken Biryani (Half)", Price: 120, Emoji: "🍗", Category: "non-vegetarian", Description: "Half portion of tender chicken biryani"},
			{Name: "Chicken Biryani (Full)", Price: 200, Emoji: "🍗", Category: "non-vegetarian", Description: "Full portion of succulent chicken biryani"},
			{Name: "Chicken Fry Biryani", Price: 220, Emoji: "🍗🔥", Category: "non-vegetarian", Description: "Special fried chicken biryani with extra spices"},
			{Name: "Double Egg Biryani", Price: 170, Emoji: "🍳🍳", Category: "egg", Description: "Biryani with double portion of eggs"},
			{Name: "Paneer Biryani", Price: 160, Emoji: "🧀", Category: "vegetarian", Description: "Rich paneer biryani with cottage cheese"},
		},
	},
	{
		Name: "Rolls & Snacks",
		Items: []models.MenuItem{
			{Name: "Veg Roll", Price: 50, Emoji: "🌯", Category: "vegetarian", Description: "Fresh vegetable wrap with chutneys"},
			{Name: "Egg Roll", Price: 60, Emoji: "🌯🍳", Category: "egg", Description: "Scrambled egg roll with spices"},
			{Name: "Paneer Roll", Price: 70, Emoji: "🌯🧀", Category: "vegetarian", Description: "Paneer tikka roll with mint chutney"},
			{Name: "Chicken Roll", Price: 80, Emoji: "🌯🍗", Category: "non-vegetarian", Description: "Chicken tikka roll with special sauce"},
		},
	},
	{
		Name: "Chowmein",
		Items: []models.MenuItem{
			{Name: "Veg Chowmein", Price: 70, Emoji: "🍜", Category: "vegetarian", Description: "Stir-fried noodles with fresh vegetables"},
			{Name: "Egg Chowmein", Price: 80, Emoji: "🍜🍳", Category: "egg", Description: "Noodles with scrambled eggs and vegetables"},
			{Name: "Chicken Chowmein", Price: 90, Emoji: "🍜🍗", Category: "non-vegetarian", Description: "Chicken chowmein with tender pieces"},
		},
	},
	{
		Name: "Extras & Drinks",
		Items: []models.MenuItem{
			{Name: "Soft Drink (500 ml)", Price: 35, Emoji: "🥤", Category: "beverage", Description: "Chilled soft drink of your choice"},
			{Name: "Extra Raita", Price: 10, Emoji: "🥣", Category: "extra", Description: "Cool yogurt-based side dish"},
			{Name: "Extra Gravy (Salan)", Price: 10, Emoji: "🍼", Category: "extra", Description: "Traditional curry gravy"},
		},
	},
}
