package models

import "time"

// MenuCategory is a tenant menu category. ProviderID is nil for locally authored rows.
type MenuCategory struct {
	ID          uint       `gorm:"column:id;primaryKey"`
	TenantID    string     `gorm:"column:tenant_id;size:64;index;not null"`
	ProviderID  *string    `gorm:"column:provider_id;size:128;index"`
	Provider    string     `gorm:"column:provider;size:16"`
	Name        string     `gorm:"column:name;size:255;not null"`
	Description string     `gorm:"column:description;type:text"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	Available   bool       `gorm:"column:available;not null"`
	Items       []MenuItem `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (MenuCategory) TableName() string {
	return "menu_categories"
}

// MenuItem is a sellable item. Price is in minor currency units.
type MenuItem struct {
	ID                uint       `gorm:"column:id;primaryKey"`
	TenantID          string     `gorm:"column:tenant_id;size:64;index;not null"`
	CategoryID        uint       `gorm:"column:category_id;index;not null"`
	ProviderID        *string    `gorm:"column:provider_id;size:128;index"`
	Provider          string     `gorm:"column:provider;size:16"`
	Name              string     `gorm:"column:name;size:255;not null"`
	Description       string     `gorm:"column:description;type:text"`
	Price             int64      `gorm:"column:price;not null"`
	ImageURL          *string    `gorm:"column:image_url;size:1024"`
	SortOrder         int        `gorm:"column:sort_order;not null"`
	Available         bool       `gorm:"column:available;not null"`
	ManualUnavailable bool       `gorm:"column:manual_unavailable;not null"`
	Modifiers         []Modifier `gorm:"foreignKey:ItemID"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (MenuItem) TableName() string {
	return "menu_items"
}

// Modifier is an option group attached to an item.
type Modifier struct {
	ID            uint             `gorm:"column:id;primaryKey"`
	TenantID      string           `gorm:"column:tenant_id;size:64;index;not null"`
	ItemID        uint             `gorm:"column:item_id;index;not null"`
	ProviderID    *string          `gorm:"column:provider_id;size:128;index"`
	Provider      string           `gorm:"column:provider;size:16"`
	Name          string           `gorm:"column:name;size:255;not null"`
	Required      bool             `gorm:"column:required;not null"`
	MinSelections int              `gorm:"column:min_selections;not null"`
	MaxSelections int              `gorm:"column:max_selections;not null"`
	SortOrder     int              `gorm:"column:sort_order;not null"`
	Available     bool             `gorm:"column:available;not null"`
	Options       []ModifierOption `gorm:"foreignKey:ModifierID"`
	CreatedAt     time.Time        `gorm:"column:created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Modifier) TableName() string {
	return "menu_modifiers"
}

// ModifierOption is a single choice inside a modifier.
type ModifierOption struct {
	ID         uint      `gorm:"column:id;primaryKey"`
	TenantID   string    `gorm:"column:tenant_id;size:64;index;not null"`
	ModifierID uint      `gorm:"column:modifier_id;index;not null"`
	ProviderID *string   `gorm:"column:provider_id;size:128;index"`
	Provider   string    `gorm:"column:provider;size:16"`
	Name       string    `gorm:"column:name;size:255;not null"`
	Price      int64     `gorm:"column:price;not null"`
	SortOrder  int       `gorm:"column:sort_order;not null"`
	Available  bool      `gorm:"column:available;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (ModifierOption) TableName() string {
	return "menu_modifier_options"
}
