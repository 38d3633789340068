package domain

// Reference data the product and order forms resolve names against.
// The backend serves the whole set in one payload; the catalog package
// mirrors it and refreshes it on an interval.

type NamedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WineCategory struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	SubCategories []NamedEntity `json:"sub_categories,omitempty"`
}

type WineRegion struct {
	ID         string        `json:"id"`
	Region     string        `json:"region"`
	Country    string        `json:"country,omitempty"`
	SubRegions []NamedEntity `json:"sub_regions,omitempty"`
}

type Vintage struct {
	ID          string `json:"id"`
	Year        int    `json:"year"`
	Description string `json:"description,omitempty"`
}

type Meta struct {
	WineCategories []WineCategory `json:"wine_categories"`
	WineRegions    []WineRegion   `json:"wine_regions"`
	DrynessLevels  []NamedEntity  `json:"dryness_levels"`
	SizeTypes      []NamedEntity  `json:"size_types"`
	Vintages       []Vintage      `json:"vintages"`
	Collectables   []NamedEntity  `json:"collectables"`
}
