package domain

// Recipe is a user owned cooking recipe.
type Recipe struct {
	Meta
	Name                     string             `json:"name" validate:"required"`
	Description              string             `json:"description,omitempty"`
	Preparation              string             `json:"preparation,omitempty"`
	Note                     string             `json:"note,omitempty"`
	AvailabilityMonths       []int              `json:"availabilityMonths,omitempty" validate:"max=12,dive,min=1,max=12"`
	Ingredients              []RecipeIngredient `json:"ingredients,omitempty" validate:"dive"`
	Servs                    int                `json:"servs,omitempty" validate:"omitempty,min=1"`
	EstimatedCookingTime     int                `json:"estimatedCookingTime,omitempty" validate:"omitempty,min=1"`
	EstimatedPreparationTime int                `json:"estimatedPreparationTime,omitempty" validate:"omitempty,min=1"`
	Rating                   int                `json:"rating,omitempty" validate:"omitempty,min=1,max=3"`
	Cost                     int                `json:"cost,omitempty" validate:"omitempty,min=1,max=3"`
	Difficulty               string             `json:"difficulty,omitempty"`
	RecipeURL                string             `json:"recipeUrl,omitempty"`
	ImgURL                   string             `json:"imgUrl,omitempty"`
	Tags                     []string           `json:"tags,omitempty"`
}

// RecipeIngredient links an owned Ingredient into a recipe.
type RecipeIngredient struct {
	Ingredient    string  `json:"ingredient" validate:"required,objectid"`
	Quantity      float64 `json:"quantity,omitempty" validate:"gte=0"`
	UnitOfMeasure string  `json:"unitOfMeasure,omitempty" validate:"max=10"`
	Required      bool    `json:"required,omitempty"`
	Freezed       bool    `json:"freezed,omitempty"`
}

func (r *Recipe) References() []Reference {
	if len(r.Ingredients) == 0 {
		return nil
	}
	ids := make([]string, len(r.Ingredients))
	for i := range r.Ingredients {
		ids[i] = r.Ingredients[i].Ingredient
	}
	return []Reference{{Collection: CollectionIngredients, Field: "ingredients", IDs: ids}}
}

// IngredientIndex returns the position of the given ingredient or -1.
func (r *Recipe) IngredientIndex(ingredientID string) int {
	for i := range r.Ingredients {
		if r.Ingredients[i].Ingredient == ingredientID {
			return i
		}
	}
	return -1
}
