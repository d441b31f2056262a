package models

// MenuItem is a priced catalog entry. Prices are whole rupees.
type MenuItem struct {
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Section     string `json:"section"`
	Category    string `json:"category"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// Catalog resolves menu items by name.
type Catalog interface {
	LookupItem(name string) (MenuItem, error)
}
