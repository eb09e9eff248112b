package entities

import "fmt"

// Point is a position in CSS pixels
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// ElementSummary is a printable snapshot of a resolved element
type ElementSummary struct {
	Field     string `json:"field,omitempty"`
	Index     int    `json:"index"`
	TagName   string `json:"tag_name"`
	Text      string `json:"text"`
	IsVisible bool   `json:"is_visible"`
	Location  *Point `json:"location,omitempty"`
}
