package store

import (
	"context"
	"fmt"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/models"

	"gorm.io/gorm"
)

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order, id")
}

// LoadLocalCatalog returns every category of the tenant with its items,
// modifiers and options, whatever their provider.
func (s *Store) LoadLocalCatalog(ctx context.Context, tenantID string) ([]reconcile.LocalCategory, error) {
	var rows []models.MenuCategory
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("Items", ordered).
		Preload("Items.Modifiers", ordered).
		Preload("Items.Modifiers.Options", ordered).
		Order("sort_order, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load local catalog: %w", err)
	}

	out := make([]reconcile.LocalCategory, 0, len(rows))
	for _, c := range rows {
		lc := reconcile.LocalCategory{
			ID:          c.ID,
			ProviderID:  c.ProviderID,
			Provider:    c.Provider,
			Name:        c.Name,
			Description: c.Description,
			SortOrder:   c.SortOrder,
			Available:   c.Available,
		}
		for _, it := range c.Items {
			li := reconcile.LocalItem{
				ID:                it.ID,
				ProviderID:        it.ProviderID,
				Provider:          it.Provider,
				Name:              it.Name,
				Description:       it.Description,
				Price:             it.Price,
				ImageURL:          it.ImageURL,
				SortOrder:         it.SortOrder,
				Available:         it.Available,
				ManualUnavailable: it.ManualUnavailable,
			}
			for _, m := range it.Modifiers {
				lm := reconcile.LocalModifier{
					ID:            m.ID,
					ProviderID:    m.ProviderID,
					Provider:      m.Provider,
					Name:          m.Name,
					Required:      m.Required,
					MinSelections: m.MinSelections,
					MaxSelections: m.MaxSelections,
					SortOrder:     m.SortOrder,
					Available:     m.Available,
				}
				for _, o := range m.Options {
					lm.Options = append(lm.Options, reconcile.LocalOption{
						ID:         o.ID,
						ProviderID: o.ProviderID,
						Provider:   o.Provider,
						Name:       o.Name,
						Price:      o.Price,
						SortOrder:  o.SortOrder,
						Available:  o.Available,
					})
				}
				li.Modifiers = append(li.Modifiers, lm)
			}
			lc.Items = append(lc.Items, li)
		}
		out = append(out, lc)
	}
	return out, nil
}

type modifierRef struct {
	item     string
	modifier string
}

// idMaps resolves provider ids of the plan's provider to internal ids.
type idMaps struct {
	categories map[string]uint
	items      map[string]uint
	modifiers  map[modifierRef]uint
}

type linkedRow struct {
	ID         uint
	ProviderID string
	ParentID   uint
}

func loadIDMaps(tx *gorm.DB, tenantID, provider string) (*idMaps, error) {
	m := &idMaps{
		categories: make(map[string]uint),
		items:      make(map[string]uint),
		modifiers:  make(map[modifierRef]uint),
	}

	var rows []linkedRow
	err := tx.Model(&models.MenuCategory{}).
		Select("id, provider_id").
		Where("tenant_id = ? AND provider = ? AND provider_id IS NOT NULL", tenantID, provider).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		m.categories[r.ProviderID] = r.ID
	}

	rows = nil
	err = tx.Model(&models.MenuItem{}).
		Select("id, provider_id").
		Where("tenant_id = ? AND provider = ? AND provider_id IS NOT NULL", tenantID, provider).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	itemKeys := make(map[uint]string, len(rows))
	for _, r := range rows {
		m.items[r.ProviderID] = r.ID
		itemKeys[r.ID] = r.ProviderID
	}

	rows = nil
	err = tx.Model(&models.Modifier{}).
		Select("id, provider_id, item_id AS parent_id").
		Where("tenant_id = ? AND provider = ? AND provider_id IS NOT NULL", tenantID, provider).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if itemKey, ok := itemKeys[r.ParentID]; ok {
			m.modifiers[modifierRef{item: itemKey, modifier: r.ProviderID}] = r.ID
		}
	}
	return m, nil
}

// ApplyPlan executes a merge plan in a single transaction. Any failure rolls
// back every action and returns pos.ErrTransactionApply.
func (s *Store) ApplyPlan(ctx context.Context, tenantID string, plan reconcile.MergePlan) error {
	if !plan.HasChanges() {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := loadIDMaps(tx, tenantID, plan.Provider)
		if err != nil {
			return fmt.Errorf("failed to resolve provider ids: %w", err)
		}
		for _, a := range plan.Actions {
			if err := applyAction(tx, tenantID, plan.Provider, ids, a); err != nil {
				return fmt.Errorf("%s %s: %w", a.Type, a.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", pos.ErrTransactionApply, err)
	}
	return nil
}

func applyAction(tx *gorm.DB, tenantID, provider string, ids *idMaps, a reconcile.Action) error {
	switch a.Type {
	case reconcile.ActionCreateCategory:
		row := models.MenuCategory{
			TenantID:    tenantID,
			ProviderID:  strPtr(a.Key),
			Provider:    provider,
			Name:        a.Category.Name,
			Description: a.Category.Description,
			SortOrder:   a.Category.SortOrder,
			Available:   a.Category.Available,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		ids.categories[a.Key] = row.ID

	case reconcile.ActionUpdateCategory:
		return update(tx, &models.MenuCategory{}, tenantID, a.LocalID, map[string]any{
			"name":        a.Category.Name,
			"description": a.Category.Description,
			"available":   a.Category.Available,
		})

	case reconcile.ActionCreateItem:
		categoryID, ok := ids.categories[a.ParentKey]
		if !ok {
			return fmt.Errorf("unknown category %q", a.ParentKey)
		}
		row := models.MenuItem{
			TenantID:    tenantID,
			CategoryID:  categoryID,
			ProviderID:  strPtr(a.Key),
			Provider:    provider,
			Name:        a.Item.Name,
			Description: a.Item.Description,
			Price:       a.Item.Price,
			ImageURL:    a.Item.ImageURL,
			SortOrder:   a.Item.SortOrder,
			Available:   a.Item.Available,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		ids.items[a.Key] = row.ID

	case reconcile.ActionUpdateItem:
		categoryID, ok := ids.categories[a.ParentKey]
		if !ok {
			return fmt.Errorf("unknown category %q", a.ParentKey)
		}
		return update(tx, &models.MenuItem{}, tenantID, a.LocalID, map[string]any{
			"category_id": categoryID,
			"name":        a.Item.Name,
			"description": a.Item.Description,
			"price":       a.Item.Price,
			"image_url":   a.Item.ImageURL,
			"available":   a.Item.Available,
		})

	case reconcile.ActionCreateModifier:
		itemID, ok := ids.items[a.ParentKey]
		if !ok {
			return fmt.Errorf("unknown item %q", a.ParentKey)
		}
		row := models.Modifier{
			TenantID:      tenantID,
			ItemID:        itemID,
			ProviderID:    strPtr(a.Key),
			Provider:      provider,
			Name:          a.Modifier.Name,
			Required:      a.Modifier.Required,
			MinSelections: a.Modifier.MinSelections,
			MaxSelections: a.Modifier.MaxSelections,
			SortOrder:     a.Modifier.SortOrder,
			Available:     a.Modifier.Available,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		ids.modifiers[modifierRef{item: a.ParentKey, modifier: a.Key}] = row.ID

	case reconcile.ActionUpdateModifier:
		return update(tx, &models.Modifier{}, tenantID, a.LocalID, map[string]any{
			"name":           a.Modifier.Name,
			"required":       a.Modifier.Required,
			"min_selections": a.Modifier.MinSelections,
			"max_selections": a.Modifier.MaxSelections,
			"available":      a.Modifier.Available,
		})

	case reconcile.ActionCreateOption:
		modifierID, ok := ids.modifiers[modifierRef{item: a.ItemKey, modifier: a.ParentKey}]
		if !ok {
			return fmt.Errorf("unknown modifier %q of item %q", a.ParentKey, a.ItemKey)
		}
		row := models.ModifierOption{
			TenantID:   tenantID,
			ModifierID: modifierID,
			ProviderID: strPtr(a.Key),
			Provider:   provider,
			Name:       a.Option.Name,
			Price:      a.Option.Price,
			SortOrder:  a.Option.SortOrder,
			Available:  a.Option.Available,
		}
		return tx.Create(&row).Error

	case reconcile.ActionUpdateOption:
		return update(tx, &models.ModifierOption{}, tenantID, a.LocalID, map[string]any{
			"name":      a.Option.Name,
			"price":     a.Option.Price,
			"available": a.Option.Available,
		})

	case reconcile.ActionSoftRemoveCategory:
		return update(tx, &models.MenuCategory{}, tenantID, a.LocalID, map[string]any{"available": false})
	case reconcile.ActionSoftRemoveItem:
		return update(tx, &models.MenuItem{}, tenantID, a.LocalID, map[string]any{"available": false})
	case reconcile.ActionSoftRemoveModifier:
		return update(tx, &models.Modifier{}, tenantID, a.LocalID, map[string]any{"available": false})
	case reconcile.ActionSoftRemoveOption:
		return update(tx, &models.ModifierOption{}, tenantID, a.LocalID, map[string]any{"available": false})

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

func update(tx *gorm.DB, model any, tenantID string, id uint, values map[string]any) error {
	res := tx.Model(model).Where("id = ? AND tenant_id = ?", id, tenantID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("row %d not found", id)
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
