package domain

// Collection names of the owned document kinds.
const (
	CollectionRecipes       = "recipes"
	CollectionIngredients   = "ingredients"
	CollectionMenus         = "menus"
	CollectionShoppingLists = "shopping_lists"
)

// Meta holds the fields shared by every owned document.
type Meta struct {
	ID              string `json:"_id"`
	OfflineID       string `json:"offline_id"`
	Owner           string `json:"owner"`
	InsertTimestamp int64  `json:"insert_timestamp"`
	UpdateTimestamp int64  `json:"update_timestamp"`
}

// Metadata gives generic code access to the embedded Meta.
func (m *Meta) Metadata() *Meta { return m }

// Document is implemented by every owned entity through its embedded Meta.
type Document interface {
	Metadata() *Meta
}

// DocumentPtr constrains generic code to pointers of document structs.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Reference lists ids a document points to inside another collection.
type Reference struct {
	Collection string
	Field      string
	IDs        []string
}

// Referencer is implemented by documents that point to other owned documents.
type Referencer interface {
	References() []Reference
}

// Normalizer is implemented by documents that fill server side defaults
// before validation.
type Normalizer interface {
	Normalize()
}
