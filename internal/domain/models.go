package domain

import "encoding/json"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt,omitempty"`
}

type CatalogItem struct {
	ID          string  `db:"id" json:"id"`
	CategoryID  string  `db:"category_id" json:"categoryId"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description,omitempty"`
	Price       float64 `db:"price" json:"price"`
	TagsJSON    string  `db:"tags_json" json:"-"`
	Featured    bool    `db:"featured" json:"featured"`
	Available   bool    `db:"available" json:"available"`
	Tracked     bool    `db:"tracked" json:"tracked"`
	Quantity    int     `db:"quantity" json:"quantity"`
	Version     int     `db:"version" json:"-"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
	UpdatedAt   string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// Tags decodes the item's key-value metadata. Stored as JSON but always
// round-tripped through this typed map, never handled as a raw blob.
func (i CatalogItem) Tags() (map[string]string, error) {
	if i.TagsJSON == "" {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(i.TagsJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type CollectionEntry struct {
	ID           string  `db:"id" json:"id"`
	CollectionID string  `db:"collection_id" json:"-"`
	ItemID       string  `db:"item_id" json:"itemId"`
	ItemName     string  `db:"item_name" json:"itemName"`
	UnitPrice    float64 `db:"unit_price" json:"unitPrice"`
	Qty          int     `db:"qty" json:"qty"`
	CreatedAt    string  `db:"created_at" json:"addedAt"`
}

type Activity struct {
	ID             string  `db:"id" json:"id"`
	Number         string  `db:"number" json:"number"`
	UserID         string  `db:"user_id" json:"userId"`
	Status         Status  `db:"status" json:"status"`
	ContactName    string  `db:"contact_name" json:"contactName"`
	ContactEmail   string  `db:"contact_email" json:"contactEmail"`
	Method         string  `db:"method" json:"method"`
	Location       string  `db:"location" json:"location,omitempty"`
	Notes          string  `db:"notes" json:"notes,omitempty"`
	Total          float64 `db:"total" json:"total"`
	Restored       bool    `db:"restored" json:"-"`
	IdempotencyKey string  `db:"idempotency_key" json:"-"`
	CreatedAt      string  `db:"created_at" json:"createdAt"`
	UpdatedAt      string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// ActivityItem lines are frozen at finalization time; item_id is kept for
// traceability only and is never used to re-read live catalog data.
type ActivityItem struct {
	ActivityID string  `db:"activity_id" json:"-"`
	ItemID     string  `db:"item_id" json:"itemId"`
	Name       string  `db:"name" json:"name"`
	UnitPrice  float64 `db:"unit_price" json:"unitPrice"`
	Qty        int     `db:"qty" json:"qty"`
	LineTotal  float64 `db:"line_total" json:"lineTotal"`
}
