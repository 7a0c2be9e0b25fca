package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = "SQUARE"

func strPtr(s string) *string { return &s }

func drinksCatalog() Catalog {
	return Catalog{
		Provider: square,
		Categories: []Category{{
			ProviderCategoryID: "C1",
			Name:               "Drinks",
			Items: []Item{{
				ProviderItemID: "I1",
				Name:           "Latte",
				Price:          450,
				Available:      true,
			}},
		}},
	}
}

func TestReconcile_FirstSyncCreates(t *testing.T) {
	plan := Reconcile(nil, drinksCatalog())

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ActionCreateCategory, plan.Actions[0].Type)
	assert.Equal(t, "C1", plan.Actions[0].Key)
	assert.Equal(t, 0, plan.Actions[0].Category.SortOrder)

	assert.Equal(t, ActionCreateItem, plan.Actions[1].Type)
	assert.Equal(t, "I1", plan.Actions[1].Key)
	assert.Equal(t, "C1", plan.Actions[1].ParentKey)
	assert.Equal(t, int64(450), plan.Actions[1].Item.Price)
	assert.True(t, plan.Actions[1].Item.Available)

	assert.Equal(t, 1, plan.Summary.Categories.Created)
	assert.Equal(t, 1, plan.Summary.Items.Created)
	assert.Empty(t, plan.Warnings)
}

func TestReconcile_Idempotent(t *testing.T) {
	remote := drinksCatalog()
	remote.Categories[0].Items[0].Modifiers = []Modifier{{
		ProviderModifierID: "M1",
		Name:               "Milk",
		MaxSelections:      1,
		Options: []ModifierOption{
			{ProviderOptionID: "O1", Name: "Oat", Price: 50, Available: true},
			{ProviderOptionID: "O2", Name: "Whole", Available: true},
		},
	}}

	first := Reconcile(nil, remote)
	local := applyInMemory(nil, square, first)

	second := Reconcile(local, remote)
	assert.False(t, second.HasChanges())
	assert.Equal(t, KindCounts{Unchanged: 1}, second.Summary.Categories)
	assert.Equal(t, KindCounts{Unchanged: 1}, second.Summary.Items)
	assert.Equal(t, KindCounts{Unchanged: 1}, second.Summary.Modifiers)
	assert.Equal(t, KindCounts{Unchanged: 2}, second.Summary.Options)
	assert.Equal(t, 3, second.Summary.ModifierCounts().Synced())
}

func TestReconcile_UpdateFields(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", SortOrder: 7, Available: true,
		Items: []LocalItem{{ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 400, SortOrder: 3, Available: true}},
	}}
	remote := drinksCatalog()
	remote.Categories[0].Name = "Hot Drinks"

	plan := Reconcile(local, remote)

	require.Len(t, plan.Actions, 2)
	cat := plan.Actions[0]
	assert.Equal(t, ActionUpdateCategory, cat.Type)
	assert.Equal(t, uint(1), cat.LocalID)
	assert.Equal(t, "Hot Drinks", cat.Category.Name)
	assert.Equal(t, 7, cat.Category.SortOrder, "sort order is never overwritten")

	item := plan.Actions[1]
	assert.Equal(t, ActionUpdateItem, item.Type)
	assert.Equal(t, uint(10), item.LocalID)
	assert.Equal(t, int64(450), item.Item.Price)
	assert.Equal(t, 3, item.Item.SortOrder)
	assert.Contains(t, item.Reason, "price")
}

func TestReconcile_ManualOverrideNeverFlipped(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{{
			ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450,
			Available: false, ManualUnavailable: true,
		}},
	}}

	plan := Reconcile(local, drinksCatalog())
	assert.False(t, plan.HasChanges())
	assert.Equal(t, 1, plan.Summary.Items.Unchanged)

	// Other changes still flow, availability stays off.
	remote := drinksCatalog()
	remote.Categories[0].Items[0].Price = 500
	plan = Reconcile(local, remote)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, int64(500), plan.Actions[0].Item.Price)
	assert.False(t, plan.Actions[0].Item.Available)
}

func TestReconcile_SoftRemove(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{
			{ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450, Available: true},
			{ID: 11, ProviderID: strPtr("I2"), Provider: square, Name: "Mocha", Price: 500, Available: true},
			{ID: 12, ProviderID: strPtr("I3"), Provider: square, Name: "Gone", Price: 100, Available: false},
		},
	}, {
		ID: 2, ProviderID: strPtr("C2"), Provider: square, Name: "Food", Available: true,
	}}

	plan := Reconcile(local, drinksCatalog())

	removedItems := plan.ActionsOf(ActionSoftRemoveItem)
	require.Len(t, removedItems, 1)
	assert.Equal(t, uint(11), removedItems[0].LocalID)

	removedCats := plan.ActionsOf(ActionSoftRemoveCategory)
	require.Len(t, removedCats, 1)
	assert.Equal(t, uint(2), removedCats[0].LocalID)

	assert.Equal(t, 1, plan.Summary.Items.Removed)
	assert.Equal(t, 1, plan.Summary.Categories.Removed)

	after := applyInMemory(local, square, plan)
	assert.Equal(t, countItems(local), countItems(after), "rows are never deleted")
	assert.False(t, Reconcile(after, drinksCatalog()).HasChanges())
}

func TestReconcile_LocalOnlyAndForeignRowsUntouched(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, Name: "Specials", Available: true,
		Items: []LocalItem{{ID: 10, Name: "Soup of the day", Price: 700, Available: true}},
	}, {
		ID: 2, ProviderID: strPtr("T-GROUP"), Provider: "TOAST", Name: "Toast Drinks", Available: true,
		Items: []LocalItem{{ID: 20, ProviderID: strPtr("T-ITEM"), Provider: "TOAST", Name: "Tea", Available: true}},
	}}

	plan := Reconcile(local, drinksCatalog())

	for _, a := range plan.Actions {
		assert.NotContains(t, []uint{1, 2, 10, 20}, a.LocalID, "action %s touched a foreign row", a.Type)
	}
	assert.Equal(t, 0, plan.Summary.Categories.Removed)
	assert.Equal(t, 0, plan.Summary.Items.Removed)

	after := applyInMemory(local, square, plan)
	assert.Equal(t, local[0], findCategory(after, 1))
	assert.Equal(t, local[1], findCategory(after, 2))
}

func TestReconcile_DuplicateRemoteItem(t *testing.T) {
	remote := drinksCatalog()
	remote.Categories = append(remote.Categories, Category{
		ProviderCategoryID: "C2",
		Name:               "Popular",
		Items:              []Item{{ProviderItemID: "I1", Name: "Latte", Price: 450, Available: true}},
	})

	plan := Reconcile(nil, remote)

	assert.Equal(t, 1, plan.Count(ActionCreateItem))
	assert.Equal(t, "C1", plan.ActionsOf(ActionCreateItem)[0].ParentKey)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "I1")
}

func TestReconcile_DuplicateCategoryMergesItems(t *testing.T) {
	remote := drinksCatalog()
	remote.Categories = append(remote.Categories, Category{
		ProviderCategoryID: "C1",
		Name:               "Drinks",
		Items: []Item{
			{ProviderItemID: "I1", Name: "Latte", Price: 450, Available: true},
			{ProviderItemID: "I2", Name: "Mocha", Price: 500, Available: true},
		},
	})

	plan := Reconcile(nil, remote)

	assert.Equal(t, 1, plan.Count(ActionCreateCategory))
	items := plan.ActionsOf(ActionCreateItem)
	require.Len(t, items, 2)
	assert.Equal(t, "I2", items[1].Key)
	assert.Equal(t, "C1", items[1].ParentKey)
	assert.Equal(t, 2, items[1].Item.SortOrder)
	assert.Equal(t, 2, plan.Summary.Items.Created)
	require.Len(t, plan.Warnings, 2)
	assert.Contains(t, plan.Warnings[0], "C1")
	assert.Contains(t, plan.Warnings[1], "I1")

	// Applying the merged result is stable.
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{
			{ID: 1, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450, Available: true},
			{ID: 2, ProviderID: strPtr("I2"), Provider: square, Name: "Mocha", Price: 500, Available: true, SortOrder: 2},
		},
	}}
	again := Reconcile(local, remote)
	assert.Zero(t, again.Count(ActionSoftRemoveItem))
	assert.Zero(t, again.Count(ActionCreateItem))
}

func TestReconcile_CategoryRestored(t *testing.T) {
	local := []LocalCategory{{ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: false}}
	remote := Catalog{Provider: square, Categories: []Category{{ProviderCategoryID: "C1", Name: "Drinks"}}}

	plan := Reconcile(local, remote)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionUpdateCategory, plan.Actions[0].Type)
	assert.True(t, plan.Actions[0].Category.Available)
	assert.Contains(t, plan.Actions[0].Reason, "restored")
}

func TestReconcile_ItemMovesCategory(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{{ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450, Available: true}},
	}}
	remote := Catalog{Provider: square, Categories: []Category{
		{ProviderCategoryID: "C1", Name: "Drinks"},
		{ProviderCategoryID: "C2", Name: "Coffee", Items: []Item{{ProviderItemID: "I1", Name: "Latte", Price: 450, Available: true}}},
	}}

	plan := Reconcile(local, remote)

	updates := plan.ActionsOf(ActionUpdateItem)
	require.Len(t, updates, 1)
	assert.Equal(t, "C2", updates[0].ParentKey)
	assert.Contains(t, updates[0].Reason, "category")
	assert.Equal(t, 0, plan.Count(ActionSoftRemoveItem))

	after := applyInMemory(local, square, plan)
	assert.False(t, Reconcile(after, remote).HasChanges())
}

func TestReconcile_ImageKeptWhenRemoteHasNone(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{{ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450, Available: true, ImageURL: strPtr("https://cdn/latte.png")}},
	}}

	assert.False(t, Reconcile(local, drinksCatalog()).HasChanges())

	remote := drinksCatalog()
	remote.Categories[0].Items[0].ImageURL = strPtr("https://square/latte.jpg")
	plan := Reconcile(local, remote)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "https://square/latte.jpg", *plan.Actions[0].Item.ImageURL)
}

func TestReconcile_Modifiers(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("C1"), Provider: square, Name: "Drinks", Available: true,
		Items: []LocalItem{{
			ID: 10, ProviderID: strPtr("I1"), Provider: square, Name: "Latte", Price: 450, Available: true,
			Modifiers: []LocalModifier{{
				ID: 100, ProviderID: strPtr("M1"), Provider: square, Name: "Milk", MaxSelections: 1, Available: true,
				Options: []LocalOption{
					{ID: 1000, ProviderID: strPtr("O1"), Provider: square, Name: "Oat", Price: 50, Available: true},
					{ID: 1001, ProviderID: strPtr("O2"), Provider: square, Name: "Soy", Price: 50, Available: true},
				},
			}, {
				ID: 101, ProviderID: strPtr("M2"), Provider: square, Name: "Syrup", Available: true,
			}},
		}},
	}}

	remote := drinksCatalog()
	remote.Categories[0].Items[0].Modifiers = []Modifier{{
		ProviderModifierID: "M1",
		Name:               "Milk",
		MaxSelections:      1,
		Options: []ModifierOption{
			{ProviderOptionID: "O1", Name: "Oat", Price: 75, Available: true},
			{ProviderOptionID: "O3", Name: "Almond", Price: 60, Available: true},
		},
	}}

	plan := Reconcile(local, remote)

	assert.Equal(t, KindCounts{Unchanged: 1, Removed: 1}, plan.Summary.Modifiers)
	assert.Equal(t, KindCounts{Created: 1, Updated: 1, Removed: 1}, plan.Summary.Options)

	created := plan.ActionsOf(ActionCreateOption)
	require.Len(t, created, 1)
	assert.Equal(t, "M1", created[0].ParentKey)
	assert.Equal(t, "I1", created[0].ItemKey)

	assert.Equal(t, uint(1001), plan.ActionsOf(ActionSoftRemoveOption)[0].LocalID)
	assert.Equal(t, uint(101), plan.ActionsOf(ActionSoftRemoveModifier)[0].LocalID)

	after := applyInMemory(local, square, plan)
	assert.False(t, Reconcile(after, remote).HasChanges())
}

func TestReconcile_ActionOrdering(t *testing.T) {
	local := []LocalCategory{{
		ID: 1, ProviderID: strPtr("OLD"), Provider: square, Name: "Old", Available: true,
		Items: []LocalItem{{ID: 10, ProviderID: strPtr("OLD-I"), Provider: square, Name: "Old item", Available: true}},
	}}

	plan := Reconcile(local, drinksCatalog())

	types := make([]ActionType, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		types = append(types, a.Type)
	}
	assert.Equal(t, []ActionType{
		ActionCreateCategory,
		ActionCreateItem,
		ActionSoftRemoveItem,
		ActionSoftRemoveCategory,
	}, types)
}

func countItems(cats []LocalCategory) int {
	n := 0
	for _, c := range cats {
		n += len(c.Items)
	}
	return n
}

func findCategory(cats []LocalCategory, id uint) LocalCategory {
	for _, c := range cats {
		if c.ID == id {
			return c
		}
	}
	return LocalCategory{}
}

// applyInMemory plays a plan against a snapshot the way the store does, so
// idempotence can be checked without a database.
func applyInMemory(local []LocalCategory, provider string, plan MergePlan) []LocalCategory {
	type itemRow struct {
		item       LocalItem
		categoryID uint
	}

	nextID := uint(10000)
	var cats []*LocalCategory
	var items []*itemRow
	for _, c := range local {
		c := c
		for _, it := range c.Items {
			it := it
			it.Modifiers = append([]LocalModifier(nil), it.Modifiers...)
			for mi := range it.Modifiers {
				it.Modifiers[mi].Options = append([]LocalOption(nil), it.Modifiers[mi].Options...)
			}
			items = append(items, &itemRow{item: it, categoryID: c.ID})
		}
		c.Items = nil
		cats = append(cats, &c)
	}

	matches := func(id *string, rowProvider, key string) bool {
		return id != nil && *id == key && rowProvider == provider
	}
	catByKey := func(key string) *LocalCategory {
		for _, c := range cats {
			if matches(c.ProviderID, c.Provider, key) {
				return c
			}
		}
		return nil
	}
	catByID := func(id uint) *LocalCategory {
		for _, c := range cats {
			if c.ID == id {
				return c
			}
		}
		return nil
	}
	itemBy := func(f func(*LocalItem) bool) *itemRow {
		for _, r := range items {
			if f(&r.item) {
				return r
			}
		}
		return nil
	}
	modifierBy := func(f func(*LocalModifier) bool) *LocalModifier {
		for _, r := range items {
			for mi := range r.item.Modifiers {
				if f(&r.item.Modifiers[mi]) {
					return &r.item.Modifiers[mi]
				}
			}
		}
		return nil
	}
	optionBy := func(id uint) *LocalOption {
		for _, r := range items {
			for mi := range r.item.Modifiers {
				for oi := range r.item.Modifiers[mi].Options {
					if r.item.Modifiers[mi].Options[oi].ID == id {
						return &r.item.Modifiers[mi].Options[oi]
					}
				}
			}
		}
		return nil
	}

	for _, a := range plan.Actions {
		nextID++
		key := a.Key
		switch a.Type {
		case ActionCreateCategory:
			cats = append(cats, &LocalCategory{ID: nextID, ProviderID: &key, Provider: provider, Name: a.Category.Name, Description: a.Category.Description, SortOrder: a.Category.SortOrder, Available: a.Category.Available})
		case ActionUpdateCategory:
			c := catByID(a.LocalID)
			c.Name, c.Description, c.Available = a.Category.Name, a.Category.Description, a.Category.Available
		case ActionSoftRemoveCategory:
			catByID(a.LocalID).Available = false
		case ActionCreateItem:
			items = append(items, &itemRow{categoryID: catByKey(a.ParentKey).ID, item: LocalItem{ID: nextID, ProviderID: &key, Provider: provider, Name: a.Item.Name, Description: a.Item.Description, Price: a.Item.Price, ImageURL: a.Item.ImageURL, SortOrder: a.Item.SortOrder, Available: a.Item.Available}})
		case ActionUpdateItem:
			r := itemBy(func(it *LocalItem) bool { return it.ID == a.LocalID })
			r.item.Name, r.item.Description, r.item.Price, r.item.ImageURL, r.item.Available = a.Item.Name, a.Item.Description, a.Item.Price, a.Item.ImageURL, a.Item.Available
			r.categoryID = catByKey(a.ParentKey).ID
		case ActionSoftRemoveItem:
			itemBy(func(it *LocalItem) bool { return it.ID == a.LocalID }).item.Available = false
		case ActionCreateModifier:
			r := itemBy(func(it *LocalItem) bool { return matches(it.ProviderID, it.Provider, a.ParentKey) })
			r.item.Modifiers = append(r.item.Modifiers, LocalModifier{ID: nextID, ProviderID: &key, Provider: provider, Name: a.Modifier.Name, Required: a.Modifier.Required, MinSelections: a.Modifier.MinSelections, MaxSelections: a.Modifier.MaxSelections, SortOrder: a.Modifier.SortOrder, Available: a.Modifier.Available})
		case ActionUpdateModifier:
			m := modifierBy(func(m *LocalModifier) bool { return m.ID == a.LocalID })
			m.Name, m.Required, m.MinSelections, m.MaxSelections, m.Available = a.Modifier.Name, a.Modifier.Required, a.Modifier.MinSelections, a.Modifier.MaxSelections, a.Modifier.Available
		case ActionSoftRemoveModifier:
			modifierBy(func(m *LocalModifier) bool { return m.ID == a.LocalID }).Available = false
		case ActionCreateOption:
			r := itemBy(func(it *LocalItem) bool { return matches(it.ProviderID, it.Provider, a.ItemKey) })
			for mi := range r.item.Modifiers {
				m := &r.item.Modifiers[mi]
				if matches(m.ProviderID, m.Provider, a.ParentKey) {
					m.Options = append(m.Options, LocalOption{ID: nextID, ProviderID: &key, Provider: provider, Name: a.Option.Name, Price: a.Option.Price, SortOrder: a.Option.SortOrder, Available: a.Option.Available})
				}
			}
		case ActionUpdateOption:
			o := optionBy(a.LocalID)
			o.Name, o.Price, o.Available = a.Option.Name, a.Option.Price, a.Option.Available
		case ActionSoftRemoveOption:
			optionBy(a.LocalID).Available = false
		}
	}

	out := make([]LocalCategory, 0, len(cats))
	for _, c := range cats {
		cat := *c
		for _, r := range items {
			if r.categoryID == cat.ID {
				cat.Items = append(cat.Items, r.item)
			}
		}
		out = append(out, cat)
	}
	return out
}
