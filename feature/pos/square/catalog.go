package square

import (
	"context"
	"fmt"
	"strconv"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/pos"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	catalogTypes      = "ITEM,CATEGORY,MODIFIER_LIST,IMAGE"
	uncategorizedID   = "square:uncategorized"
	uncategorizedName = "Uncategorized"
	maxCatalogPages   = 1000
)

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type catalogObject struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	IsDeleted bool   `json:"is_deleted"`

	ItemData *struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CategoryID  string `json:"category_id"`
		Categories  []struct {
			ID string `json:"id"`
		} `json:"categories"`
		ImageIDs   []string `json:"image_ids"`
		IsArchived bool     `json:"is_archived"`
		Variations []struct {
			ID                string `json:"id"`
			IsDeleted         bool   `json:"is_deleted"`
			ItemVariationData struct {
				PriceMoney *money `json:"price_money"`
			} `json:"item_variation_data"`
		} `json:"variations"`
		ModifierListInfo []struct {
			ModifierListID       string `json:"modifier_list_id"`
			Enabled              *bool  `json:"enabled"`
			MinSelectedModifiers *int   `json:"min_selected_modifiers"`
			MaxSelectedModifiers *int   `json:"max_selected_modifiers"`
		} `json:"modifier_list_info"`
	} `json:"item_data"`

	CategoryData *struct {
		Name string `json:"name"`
	} `json:"category_data"`

	ModifierListData *struct {
		Name          string `json:"name"`
		SelectionType string `json:"selection_type"`
		Modifiers     []struct {
			ID           string `json:"id"`
			IsDeleted    bool   `json:"is_deleted"`
			ModifierData struct {
				Name       string `json:"name"`
				PriceMoney *money `json:"price_money"`
			} `json:"modifier_data"`
		} `json:"modifiers"`
	} `json:"modifier_list_data"`

	ImageData *struct {
		URL string `json:"url"`
	} `json:"image_data"`
}

type listCatalogResponse struct {
	Objects []catalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

// FetchCatalog pages through /v2/catalog/list and assembles the canonical catalog.
// A page that still fails after retries is recorded and ends pagination.
func (a *Adapter) FetchCatalog(ctx context.Context, tenantID string, token *oauth2.Token) (pos.FetchResult, error) {
	if token == nil || token.AccessToken == "" {
		return pos.FetchResult{}, fmt.Errorf("%w: no token", pos.ErrAuthExpired)
	}

	var objects []catalogObject
	var pageErrors []pos.PageError
	cursor := ""

	for page := 1; page <= maxCatalogPages; page++ {
		res, err := a.listPage(ctx, token.AccessToken, cursor)
		if err != nil {
			pageErrors = append(pageErrors, pos.PageError{Page: strconv.Itoa(page), Err: err})
			a.logger.Warn("Catalog page failed",
				zap.String("tenant_id", tenantID),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		objects = append(objects, res.Objects...)
		if res.Cursor == "" {
			break
		}
		cursor = res.Cursor
	}

	if len(objects) == 0 && len(pageErrors) > 0 {
		return pos.FetchResult{PageErrors: pageErrors}, fmt.Errorf("%w: %w", pos.ErrFetchFailed, pageErrors[0])
	}

	return pos.FetchResult{Catalog: normalize(objects), PageErrors: pageErrors}, nil
}

func (a *Adapter) listPage(ctx context.Context, accessToken, cursor string) (*listCatalogResponse, error) {
	var out listCatalogResponse
	var apiErr errorResponse

	req := a.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("types", catalogTypes).
		SetResult(&out).
		SetError(&apiErr)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/v2/catalog/list")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		if resp.StatusCode() == 401 {
			return nil, fmt.Errorf("%w: status 401: %s", pos.ErrAuthExpired, apiErr)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), apiErr)
	}
	return &out, nil
}

// normalize turns the flat object list into ordered categories. Categories keep
// list order; items without a known category go to a trailing Uncategorized group.
func normalize(objects []catalogObject) reconcile.Catalog {
	images := make(map[string]string)
	lists := make(map[string]*catalogObject)
	var categoryOrder []string
	categories := make(map[string]*reconcile.Category)

	for i := range objects {
		obj := &objects[i]
		switch obj.Type {
		case "IMAGE":
			if obj.ImageData != nil {
				images[obj.ID] = obj.ImageData.URL
			}
		case "MODIFIER_LIST":
			if obj.ModifierListData != nil {
				lists[obj.ID] = obj
			}
		case "CATEGORY":
			if obj.CategoryData == nil || obj.IsDeleted {
				continue
			}
			if _, ok := categories[obj.ID]; !ok {
				categoryOrder = append(categoryOrder, obj.ID)
				categories[obj.ID] = &reconcile.Category{ProviderCategoryID: obj.ID, Name: obj.CategoryData.Name}
			}
		}
	}

	var uncategorized []reconcile.Item
	for i := range objects {
		obj := &objects[i]
		if obj.Type != "ITEM" || obj.ItemData == nil {
			continue
		}

		item := normalizeItem(obj, images, lists)
		categoryID := obj.ItemData.CategoryID
		if len(obj.ItemData.Categories) > 0 {
			categoryID = obj.ItemData.Categories[0].ID
		}

		if cat, ok := categories[categoryID]; ok {
			cat.Items = append(cat.Items, item)
		} else {
			uncategorized = append(uncategorized, item)
		}
	}

	catalog := reconcile.Catalog{Provider: string(pos.ProviderSquare)}
	for _, id := range categoryOrder {
		catalog.Categories = append(catalog.Categories, *categories[id])
	}
	if len(uncategorized) > 0 {
		catalog.Categories = append(catalog.Categories, reconcile.Category{
			ProviderCategoryID: uncategorizedID,
			Name:               uncategorizedName,
			Items:              uncategorized,
		})
	}
	return catalog
}

func normalizeItem(obj *catalogObject, images map[string]string, lists map[string]*catalogObject) reconcile.Item {
	data := obj.ItemData
	item := reconcile.Item{
		ProviderItemID: obj.ID,
		Name:           data.Name,
		Description:    data.Description,
		Available:      !obj.IsDeleted && !data.IsArchived,
	}

	for _, v := range data.Variations {
		if v.IsDeleted {
			continue
		}
		if v.ItemVariationData.PriceMoney != nil {
			item.Price = v.ItemVariationData.PriceMoney.Amount
		}
		break
	}

	for _, id := range data.ImageIDs {
		if url, ok := images[id]; ok && url != "" {
			u := url
			item.ImageURL = &u
			break
		}
	}

	for _, info := range data.ModifierListInfo {
		if info.Enabled != nil && !*info.Enabled {
			continue
		}
		list, ok := lists[info.ModifierListID]
		if !ok {
			continue
		}
		item.Modifiers = append(item.Modifiers, normalizeModifier(list, info.MinSelectedModifiers, info.MaxSelectedModifiers))
	}
	return item
}

func normalizeModifier(list *catalogObject, minSel, maxSel *int) reconcile.Modifier {
	data := list.ModifierListData
	mod := reconcile.Modifier{
		ProviderModifierID: list.ID,
		Name:               data.Name,
	}

	// Square uses -1 for "not set".
	if minSel != nil && *minSel > 0 {
		mod.MinSelections = *minSel
		mod.Required = true
	}
	switch {
	case maxSel != nil && *maxSel >= 0:
		mod.MaxSelections = *maxSel
	case data.SelectionType == "SINGLE":
		mod.MaxSelections = 1
	}

	for _, m := range data.Modifiers {
		opt := reconcile.ModifierOption{
			ProviderOptionID: m.ID,
			Name:             m.ModifierData.Name,
			Available:        !m.IsDeleted && !list.IsDeleted,
		}
		if m.ModifierData.PriceMoney != nil {
			opt.Price = m.ModifierData.PriceMoney.Amount
		}
		mod.Options = append(mod.Options, opt)
	}
	return mod
}
