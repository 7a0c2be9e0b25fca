package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

type modifierKey struct {
	item     string
	modifier string
}

type optionKey struct {
	item     string
	modifier string
	option   string
}

type localItemRef struct {
	item        *LocalItem
	categoryKey string
}

// index holds the local rows linked to one provider, keyed by provider id.
type index struct {
	categories map[string]*LocalCategory
	items      map[string]localItemRef
	modifiers  map[modifierKey]*LocalModifier
	options    map[optionKey]*LocalOption
}

// Reconcile diffs a remote catalog against the local snapshot and returns the
// plan that makes the store match it. It never touches rows authored locally or
// rows linked to another provider, and never plans a hard delete.
func Reconcile(local []LocalCategory, remote Catalog) MergePlan {
	idx := buildIndex(local, remote.Provider)
	b := &planBuilder{
		plan: MergePlan{Provider: remote.Provider, Actions: []Action{}, Warnings: []string{}},
		seenCategories: make(map[string]struct{}),
		seenItems:      make(map[string]struct{}),
		seenModifiers:  make(map[modifierKey]struct{}),
		seenOptions:    make(map[optionKey]struct{}),
	}

	// Item positions continue across repeated occurrences of a category.
	itemCount := make(map[string]int)
	for pos, rc := range remote.Categories {
		if _, dup := b.seenCategories[rc.ProviderCategoryID]; dup {
			b.warn("duplicate category %s in remote catalog; merging its items into the first occurrence", rc.ProviderCategoryID)
		} else {
			b.seenCategories[rc.ProviderCategoryID] = struct{}{}
			b.category(idx, pos, rc)
		}

		base := itemCount[rc.ProviderCategoryID]
		itemCount[rc.ProviderCategoryID] = base + len(rc.Items)
		b.items(idx, rc.ProviderCategoryID, base, rc.Items)
	}

	b.softRemovals(idx)
	return b.plan
}

func (b *planBuilder) items(idx *index, categoryID string, base int, items []Item) {
	for i, ri := range items {
		if _, dup := b.seenItems[ri.ProviderItemID]; dup {
			b.warn("item %s listed in more than one category; keeping first occurrence", ri.ProviderItemID)
			continue
		}
		b.seenItems[ri.ProviderItemID] = struct{}{}
		b.item(idx, base+i, categoryID, ri)

		for modPos, rm := range ri.Modifiers {
			mk := modifierKey{item: ri.ProviderItemID, modifier: rm.ProviderModifierID}
			if _, dup := b.seenModifiers[mk]; dup {
				b.warn("duplicate modifier %s on item %s; keeping first occurrence", rm.ProviderModifierID, ri.ProviderItemID)
				continue
			}
			b.seenModifiers[mk] = struct{}{}
			b.modifier(idx, modPos, ri.ProviderItemID, rm)

			for optPos, ro := range rm.Options {
				key := optionKey{item: ri.ProviderItemID, modifier: rm.ProviderModifierID, option: ro.ProviderOptionID}
				if _, dup := b.seenOptions[key]; dup {
					b.warn("duplicate option %s on modifier %s; keeping first occurrence", ro.ProviderOptionID, rm.ProviderModifierID)
					continue
				}
				b.seenOptions[key] = struct{}{}
				b.option(idx, optPos, key, ro)
			}
		}
	}
}

func buildIndex(local []LocalCategory, provider string) *index {
	idx := &index{
		categories: make(map[string]*LocalCategory),
		items:      make(map[string]localItemRef),
		modifiers:  make(map[modifierKey]*LocalModifier),
		options:    make(map[optionKey]*LocalOption),
	}

	for ci := range local {
		lc := &local[ci]
		categoryKey := ""
		if linked(lc.ProviderID, lc.Provider, provider) {
			categoryKey = *lc.ProviderID
			idx.categories[categoryKey] = lc
		}

		for ii := range lc.Items {
			li := &lc.Items[ii]
			if !linked(li.ProviderID, li.Provider, provider) {
				continue
			}
			itemKey := *li.ProviderID
			idx.items[itemKey] = localItemRef{item: li, categoryKey: categoryKey}

			for mi := range li.Modifiers {
				lm := &li.Modifiers[mi]
				if !linked(lm.ProviderID, lm.Provider, provider) {
					continue
				}
				mk := modifierKey{item: itemKey, modifier: *lm.ProviderID}
				idx.modifiers[mk] = lm

				for oi := range lm.Options {
					lo := &lm.Options[oi]
					if !linked(lo.ProviderID, lo.Provider, provider) {
						continue
					}
					idx.options[optionKey{item: itemKey, modifier: mk.modifier, option: *lo.ProviderID}] = lo
				}
			}
		}
	}
	return idx
}

func linked(providerID *string, rowProvider, provider string) bool {
	return providerID != nil && *providerID != "" && rowProvider == provider
}

type planBuilder struct {
	plan MergePlan

	seenCategories map[string]struct{}
	seenItems      map[string]struct{}
	seenModifiers  map[modifierKey]struct{}
	seenOptions    map[optionKey]struct{}
}

func (b *planBuilder) warn(format string, args ...any) {
	b.plan.Warnings = append(b.plan.Warnings, fmt.Sprintf(format, args...))
}

func (b *planBuilder) add(a Action) {
	b.plan.Actions = append(b.plan.Actions, a)
}

func (b *planBuilder) category(idx *index, pos int, rc Category) {
	lc, ok := idx.categories[rc.ProviderCategoryID]
	if !ok {
		b.add(Action{
			Type:   ActionCreateCategory,
			Key:    rc.ProviderCategoryID,
			Reason: "new remote category",
			Category: &CategoryChange{
				Name:        rc.Name,
				Description: rc.Description,
				SortOrder:   pos,
				Available:   true,
			},
		})
		b.plan.Summary.Categories.Created++
		return
	}

	var diffs []string
	if lc.Name != rc.Name {
		diffs = append(diffs, "name")
	}
	if lc.Description != rc.Description {
		diffs = append(diffs, "description")
	}
	if !lc.Available {
		diffs = append(diffs, "restored")
	}
	if len(diffs) == 0 {
		b.plan.Summary.Categories.Unchanged++
		return
	}

	b.add(Action{
		Type:    ActionUpdateCategory,
		Key:     rc.ProviderCategoryID,
		LocalID: lc.ID,
		Reason:  reason(diffs),
		Category: &CategoryChange{
			Name:        rc.Name,
			Description: rc.Description,
			SortOrder:   lc.SortOrder,
			Available:   true,
		},
	})
	b.plan.Summary.Categories.Updated++
}

func (b *planBuilder) item(idx *index, pos int, categoryKey string, ri Item) {
	ref, ok := idx.items[ri.ProviderItemID]
	if !ok {
		b.add(Action{
			Type:      ActionCreateItem,
			Key:       ri.ProviderItemID,
			ParentKey: categoryKey,
			Reason:    "new remote item",
			Item: &ItemChange{
				Name:        ri.Name,
				Description: ri.Description,
				Price:       ri.Price,
				ImageURL:    ri.ImageURL,
				SortOrder:   pos,
				Available:   ri.Available,
			},
		})
		b.plan.Summary.Items.Created++
		return
	}

	li := ref.item
	available := ri.Available && !li.ManualUnavailable

	// A remote item without an image keeps the locally uploaded one.
	image := li.ImageURL
	if ri.ImageURL != nil {
		image = ri.ImageURL
	}

	var diffs []string
	if li.Name != ri.Name {
		diffs = append(diffs, "name")
	}
	if li.Description != ri.Description {
		diffs = append(diffs, "description")
	}
	if li.Price != ri.Price {
		diffs = append(diffs, "price")
	}
	if !equalStringPtr(li.ImageURL, image) {
		diffs = append(diffs, "image_url")
	}
	if li.Available != available {
		diffs = append(diffs, "available")
	}
	if ref.categoryKey != categoryKey {
		diffs = append(diffs, "category")
	}
	if len(diffs) == 0 {
		b.plan.Summary.Items.Unchanged++
		return
	}

	b.add(Action{
		Type:      ActionUpdateItem,
		Key:       ri.ProviderItemID,
		LocalID:   li.ID,
		ParentKey: categoryKey,
		Reason:    reason(diffs),
		Item: &ItemChange{
			Name:        ri.Name,
			Description: ri.Description,
			Price:       ri.Price,
			ImageURL:    image,
			SortOrder:   li.SortOrder,
			Available:   available,
		},
	})
	b.plan.Summary.Items.Updated++
}

func (b *planBuilder) modifier(idx *index, pos int, itemKey string, rm Modifier) {
	lm, ok := idx.modifiers[modifierKey{item: itemKey, modifier: rm.ProviderModifierID}]
	if !ok {
		b.add(Action{
			Type:      ActionCreateModifier,
			Key:       rm.ProviderModifierID,
			ParentKey: itemKey,
			Reason:    "new remote modifier",
			Modifier: &ModifierChange{
				Name:          rm.Name,
				Required:      rm.Required,
				MinSelections: rm.MinSelections,
				MaxSelections: rm.MaxSelections,
				SortOrder:     pos,
				Available:     true,
			},
		})
		b.plan.Summary.Modifiers.Created++
		return
	}

	var diffs []string
	if lm.Name != rm.Name {
		diffs = append(diffs, "name")
	}
	if lm.Required != rm.Required || lm.MinSelections != rm.MinSelections || lm.MaxSelections != rm.MaxSelections {
		diffs = append(diffs, "selection rules")
	}
	if !lm.Available {
		diffs = append(diffs, "restored")
	}
	if len(diffs) == 0 {
		b.plan.Summary.Modifiers.Unchanged++
		return
	}

	b.add(Action{
		Type:      ActionUpdateModifier,
		Key:       rm.ProviderModifierID,
		LocalID:   lm.ID,
		ParentKey: itemKey,
		Reason:    reason(diffs),
		Modifier: &ModifierChange{
			Name:          rm.Name,
			Required:      rm.Required,
			MinSelections: rm.MinSelections,
			MaxSelections: rm.MaxSelections,
			SortOrder:     lm.SortOrder,
			Available:     true,
		},
	})
	b.plan.Summary.Modifiers.Updated++
}

func (b *planBuilder) option(idx *index, pos int, key optionKey, ro ModifierOption) {
	lo, ok := idx.options[key]
	if !ok {
		b.add(Action{
			Type:      ActionCreateOption,
			Key:       ro.ProviderOptionID,
			ParentKey: key.modifier,
			ItemKey:   key.item,
			Reason:    "new remote option",
			Option: &OptionChange{
				Name:      ro.Name,
				Price:     ro.Price,
				SortOrder: pos,
				Available: ro.Available,
			},
		})
		b.plan.Summary.Options.Created++
		return
	}

	var diffs []string
	if lo.Name != ro.Name {
		diffs = append(diffs, "name")
	}
	if lo.Price != ro.Price {
		diffs = append(diffs, "price")
	}
	if lo.Available != ro.Available {
		diffs = append(diffs, "available")
	}
	if len(diffs) == 0 {
		b.plan.Summary.Options.Unchanged++
		return
	}

	b.add(Action{
		Type:      ActionUpdateOption,
		Key:       ro.ProviderOptionID,
		LocalID:   lo.ID,
		ParentKey: key.modifier,
		ItemKey:   key.item,
		Reason:    reason(diffs),
		Option: &OptionChange{
			Name:      ro.Name,
			Price:     ro.Price,
			SortOrder: lo.SortOrder,
			Available: ro.Available,
		},
	})
	b.plan.Summary.Options.Updated++
}

// softRemovals plans available=false for linked rows absent from the pull,
// children first. Keys are sorted so the plan is deterministic.
func (b *planBuilder) softRemovals(idx *index) {
	optionKeys := make([]optionKey, 0, len(idx.options))
	for k := range idx.options {
		optionKeys = append(optionKeys, k)
	}
	sort.Slice(optionKeys, func(i, j int) bool {
		a, c := optionKeys[i], optionKeys[j]
		if a.item != c.item {
			return a.item < c.item
		}
		if a.modifier != c.modifier {
			return a.modifier < c.modifier
		}
		return a.option < c.option
	})
	for _, k := range optionKeys {
		lo := idx.options[k]
		if _, seen := b.seenOptions[k]; seen || !lo.Available {
			continue
		}
		b.add(Action{Type: ActionSoftRemoveOption, Key: k.option, LocalID: lo.ID, ParentKey: k.modifier, ItemKey: k.item, Reason: "missing from remote catalog"})
		b.plan.Summary.Options.Removed++
	}

	modifierKeys := make([]modifierKey, 0, len(idx.modifiers))
	for k := range idx.modifiers {
		modifierKeys = append(modifierKeys, k)
	}
	sort.Slice(modifierKeys, func(i, j int) bool {
		if modifierKeys[i].item != modifierKeys[j].item {
			return modifierKeys[i].item < modifierKeys[j].item
		}
		return modifierKeys[i].modifier < modifierKeys[j].modifier
	})
	for _, k := range modifierKeys {
		lm := idx.modifiers[k]
		if _, seen := b.seenModifiers[k]; seen || !lm.Available {
			continue
		}
		b.add(Action{Type: ActionSoftRemoveModifier, Key: k.modifier, LocalID: lm.ID, ParentKey: k.item, Reason: "missing from remote catalog"})
		b.plan.Summary.Modifiers.Removed++
	}

	for _, k := range sortedKeys(idx.items) {
		ref := idx.items[k]
		if _, seen := b.seenItems[k]; seen || !ref.item.Available {
			continue
		}
		b.add(Action{Type: ActionSoftRemoveItem, Key: k, LocalID: ref.item.ID, ParentKey: ref.categoryKey, Reason: "missing from remote catalog"})
		b.plan.Summary.Items.Removed++
	}

	for _, k := range sortedKeys(idx.categories) {
		lc := idx.categories[k]
		if _, seen := b.seenCategories[k]; seen || !lc.Available {
			continue
		}
		b.add(Action{Type: ActionSoftRemoveCategory, Key: k, LocalID: lc.ID, Reason: "missing from remote catalog"})
		b.plan.Summary.Categories.Removed++
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func reason(diffs []string) string {
	return "changed: " + strings.Join(diffs, ", ")
}
