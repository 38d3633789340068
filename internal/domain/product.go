package domain

import "time"

// Product is a catalog wine as the backend returns it. The editor only cares
// about ID, Name and QtyOnHand; the rest is carried for the product pages.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	QtyOnHand    int      `json:"qty_on_hand"`
	UnitPrice    float64  `json:"unit_price"`
	UnitDiscount float64  `json:"unit_discount"`
	PackSize     int      `json:"pack_size,omitempty"`
	PackPrice    float64  `json:"pack_price,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	SubCategory  string   `json:"sub_category,omitempty"`
	Region       string   `json:"region,omitempty"`
	SubRegion    string   `json:"sub_region,omitempty"`
	Vintage      int      `json:"vintage,omitempty"`
	Dryness      string   `json:"dryness,omitempty"`
	SizeTypes    []string `json:"size_types,omitempty"`
	Collectables []string `json:"collectables,omitempty"`
	GreatForGift bool     `json:"great_for_gift,omitempty"`
	Image        string   `json:"image,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
