package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// ShoppingList is a user owned list of things to buy. Every user gets one
// at registration.
type ShoppingList struct {
	Meta
	Name  string             `json:"name,omitempty"`
	Items []ShoppingListItem `json:"items" validate:"dive"`
}

// ShoppingListItem is a single entry of a ShoppingList.
type ShoppingListItem struct {
	ItemID        string  `json:"item_id" validate:"required,objectid"`
	Name          string  `json:"name" validate:"required"`
	Quantity      float64 `json:"quantity,omitempty" validate:"gte=0"`
	UnitOfMeasure string  `json:"unitOfMeasure,omitempty" validate:"max=10"`
	Checked       bool    `json:"checked"`
	ListName      string  `json:"listName,omitempty"`
}

// Normalize assigns ids to items that were supplied without one.
func (s *ShoppingList) Normalize() {
	if s.Items == nil {
		s.Items = []ShoppingListItem{}
	}
	for i := range s.Items {
		if s.Items[i].ItemID == "" {
			s.Items[i].ItemID = primitive.NewObjectID().Hex()
		}
	}
}

// ItemIndex returns the position of the given item or -1.
func (s *ShoppingList) ItemIndex(itemID string) int {
	for i := range s.Items {
		if s.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}
