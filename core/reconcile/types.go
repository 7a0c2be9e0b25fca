package reconcile

// Catalog is the provider-neutral shape every POS adapter normalizes into.
type Catalog struct {
	// Provider is the tag of the POS the catalog was pulled from (SQUARE, TOAST).
	Provider string `json:"provider"`

	// Categories are in remote display order.
	Categories []Category `json:"categories"`
}

// Category is a remote menu category with its items in display order.
type Category struct {
	ProviderCategoryID string `json:"provider_category_id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Items              []Item `json:"items"`
}

// Item is a remote sellable item. Price is in minor currency units.
type Item struct {
	// ProviderItemID is the join key against local rows.
	ProviderItemID string     `json:"provider_item_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Price          int64      `json:"price"`
	ImageURL       *string    `json:"image_url,omitempty"`
	Modifiers      []Modifier `json:"modifiers"`
	Available      bool       `json:"available"`
}

// Modifier is a group of options attached to an item (size, milk, extras).
type Modifier struct {
	ProviderModifierID string           `json:"provider_modifier_id"`
	Name               string           `json:"name"`
	Required           bool             `json:"required"`
	MinSelections      int              `json:"min_selections"`
	MaxSelections      int              `json:"max_selections"`
	Options            []ModifierOption `json:"options"`
}

// ModifierOption is a single choice inside a modifier.
type ModifierOption struct {
	ProviderOptionID string `json:"provider_option_id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	Available        bool   `json:"available"`
}

// LocalCategory is a snapshot of a stored category with its items.
// A nil ProviderID marks a row authored locally.
type LocalCategory struct {
	ID          uint
	ProviderID  *string
	Provider    string
	Name        string
	Description string
	SortOrder   int
	Available   bool
	Items       []LocalItem
}

// LocalItem is a snapshot of a stored item.
type LocalItem struct {
	ID          uint
	ProviderID  *string
	Provider    string
	Name        string
	Description string
	Price       int64
	ImageURL    *string
	SortOrder   int
	Available   bool

	// ManualUnavailable is the staff override. While set, sync never marks the item available.
	ManualUnavailable bool

	Modifiers []LocalModifier
}

// LocalModifier is a snapshot of a stored modifier.
type LocalModifier struct {
	ID            uint
	ProviderID    *string
	Provider      string
	Name          string
	Required      bool
	MinSelections int
	MaxSelections int
	SortOrder     int
	Available     bool
	Options       []LocalOption
}

// LocalOption is a snapshot of a stored modifier option.
type LocalOption struct {
	ID         uint
	ProviderID *string
	Provider   string
	Name       string
	Price      int64
	SortOrder  int
	Available  bool
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	ActionCreateCategory     ActionType = "create_category"
	ActionUpdateCategory     ActionType = "update_category"
	ActionSoftRemoveCategory ActionType = "soft_remove_category"
	ActionCreateItem         ActionType = "create_item"
	ActionUpdateItem         ActionType = "update_item"
	ActionSoftRemoveItem     ActionType = "soft_remove_item"
	ActionCreateModifier     ActionType = "create_modifier"
	ActionUpdateModifier     ActionType = "update_modifier"
	ActionSoftRemoveModifier ActionType = "soft_remove_modifier"
	ActionCreateOption       ActionType = "create_option"
	ActionUpdateOption       ActionType = "update_option"
	ActionSoftRemoveOption   ActionType = "soft_remove_option"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the provider id of the record.
	Key string `json:"key"`

	// LocalID is the internal id of the row for update and soft_remove actions.
	LocalID uint `json:"local_id,omitempty"`

	// ParentKey is the provider id of the parent record: the category for items,
	// the item for modifiers, the modifier for options.
	ParentKey string `json:"parent_key,omitempty"`

	// ItemKey is the owning item's provider id. Only set for option actions.
	ItemKey string `json:"item_key,omitempty"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Exactly one payload is set for create and update actions.
	Category *CategoryChange `json:"category,omitempty"`
	Item     *ItemChange     `json:"item,omitempty"`
	Modifier *ModifierChange `json:"modifier,omitempty"`
	Option   *OptionChange   `json:"option,omitempty"`
}

// CategoryChange carries the desired category fields.
// SortOrder is only honored on create.
type CategoryChange struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	Available   bool   `json:"available"`
}

// ItemChange carries the desired item fields.
type ItemChange struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	ImageURL    *string `json:"image_url,omitempty"`
	SortOrder   int     `json:"sort_order"`
	Available   bool    `json:"available"`
}

// ModifierChange carries the desired modifier fields.
type ModifierChange struct {
	Name          string `json:"name"`
	Required      bool   `json:"required"`
	MinSelections int    `json:"min_selections"`
	MaxSelections int    `json:"max_selections"`
	SortOrder     int    `json:"sort_order"`
	Available     bool   `json:"available"`
}

// OptionChange carries the desired option fields.
type OptionChange struct {
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	SortOrder int    `json:"sort_order"`
	Available bool   `json:"available"`
}

// MergePlan is the ordered list of actions that brings the local store in line
// with a remote catalog.
type MergePlan struct {
	// Provider is the tag of the catalog the plan was built from.
	Provider string `json:"provider"`

	// Actions are ordered so every parent is created before its children.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	// Warnings lists anomalies in the remote data (duplicate ids).
	Warnings []string `json:"warnings"`
}

// KindCounts counts reconciliation outcomes for one record kind.
type KindCounts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Synced is the number of remote records reconciled, whether or not they changed.
func (k KindCounts) Synced() int {
	return k.Created + k.Updated + k.Unchanged
}

// Add returns the field-wise sum of two counts.
func (k KindCounts) Add(o KindCounts) KindCounts {
	return KindCounts{
		Created:   k.Created + o.Created,
		Updated:   k.Updated + o.Updated,
		Unchanged: k.Unchanged + o.Unchanged,
		Removed:   k.Removed + o.Removed,
	}
}

// PlanSummary provides aggregate statistics for a merge plan.
type PlanSummary struct {
	Categories KindCounts `json:"categories"`
	Items      KindCounts `json:"items"`
	Modifiers  KindCounts `json:"modifiers"`
	Options    KindCounts `json:"options"`
}
