package domain

// Ingredient is a user owned pantry item that recipes refer to.
type Ingredient struct {
	Meta
	Name               string   `json:"name" validate:"required"`
	Description        string   `json:"description,omitempty"`
	Note               string   `json:"note,omitempty"`
	Edible             bool     `json:"edible,omitempty"`
	Freezed            bool     `json:"freezed,omitempty"`
	AvailabilityMonths []int    `json:"availabilityMonths,omitempty" validate:"max=12,dive,min=1,max=12"`
	Tags               []string `json:"tags,omitempty"`
}
