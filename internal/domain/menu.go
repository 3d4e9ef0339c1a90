package domain

// MenuDateLayout is the wire format of Menu.Date.
const MenuDateLayout = "2006-01-02"

// Menu groups owned recipes planned for a single day.
type Menu struct {
	Meta
	Name    string   `json:"name,omitempty"`
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Recipes []string `json:"recipes,omitempty" validate:"dive,objectid"`
}

func (m *Menu) References() []Reference {
	if len(m.Recipes) == 0 {
		return nil
	}
	return []Reference{{Collection: CollectionRecipes, Field: "recipes", IDs: m.Recipes}}
}

// RecipeIndex returns the position of the given recipe or -1.
func (m *Menu) RecipeIndex(recipeID string) int {
	for i, id := range m.Recipes {
		if id == recipeID {
			return i
		}
	}
	return -1
}
