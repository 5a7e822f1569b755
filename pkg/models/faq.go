package models

// FAQItem is one entry of the FAQ inline menu
type FAQItem struct {
	ID        int64  `json:"id" db:"id"`
	Question  string `json:"question" db:"question"`
	Answer    string `json:"answer" db:"answer"`
	SortOrder int    `json:"sort_order" db:"sort_order"`
	IsVisible bool   `json:"is_visible" db:"is_visible"`
}
