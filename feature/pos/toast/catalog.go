package toast

import (
	"context"
	"fmt"
	"strconv"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/pos"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const maxStockPages = 200

type menuItem struct {
	GUID                    string              `json:"guid"`
	Name                    string              `json:"name"`
	Description             string              `json:"description"`
	Price                   decimal.NullDecimal `json:"price"`
	Image                   string              `json:"image"`
	Visibility              []string            `json:"visibility"`
	ModifierGroupReferences []int64             `json:"modifierGroupReferences"`
}

type menuGroup struct {
	GUID        string      `json:"guid"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	MenuItems   []menuItem  `json:"menuItems"`
	MenuGroups  []menuGroup `json:"menuGroups"`
}

type modifierGroupRef struct {
	ReferenceID              int64   `json:"referenceId"`
	GUID                     string  `json:"guid"`
	Name                     string  `json:"name"`
	RequiredMode             string  `json:"requiredMode"`
	MinSelections            *int    `json:"minSelections"`
	MaxSelections            *int    `json:"maxSelections"`
	ModifierOptionReferences []int64 `json:"modifierOptionReferences"`
}

type modifierOptionRef struct {
	ReferenceID int64               `json:"referenceId"`
	GUID        string              `json:"guid"`
	Name        string              `json:"name"`
	Price       decimal.NullDecimal `json:"price"`
	Visibility  []string            `json:"visibility"`
}

type menusResponse struct {
	RestaurantGUID string `json:"restaurantGuid"`
	Menus          []struct {
		GUID       string      `json:"guid"`
		Name       string      `json:"name"`
		MenuGroups []menuGroup `json:"menuGroups"`
	} `json:"menus"`
	ModifierGroupReferences  map[string]modifierGroupRef  `json:"modifierGroupReferences"`
	ModifierOptionReferences map[string]modifierOptionRef `json:"modifierOptionReferences"`
}

type stockEntry struct {
	GUID   string `json:"guid"`
	Status string `json:"status"`
}

// FetchCatalog reads the published menus and overlays stock status. Menu
// failure is fatal; stock page failures are page errors and leave items visible.
func (a *Adapter) FetchCatalog(ctx context.Context, tenantID string, token *oauth2.Token) (pos.FetchResult, error) {
	if token == nil || token.AccessToken == "" {
		return pos.FetchResult{}, fmt.Errorf("%w: no token", pos.ErrAuthExpired)
	}

	creds, err := a.store.Get(ctx, tenantID, pos.ProviderToast)
	if err != nil {
		return pos.FetchResult{}, err
	}
	restaurant := creds.AccountID

	var menus menusResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetHeader(restaurantHeader, restaurant).
		SetResult(&menus).
		Get("/menus/v2/menus")
	if err != nil {
		return pos.FetchResult{}, fmt.Errorf("%w: %v", pos.ErrFetchFailed, err)
	}
	if resp.IsError() {
		if resp.StatusCode() == 401 {
			return pos.FetchResult{}, fmt.Errorf("%w: %w: menus returned 401", pos.ErrFetchFailed, pos.ErrAuthExpired)
		}
		return pos.FetchResult{}, fmt.Errorf("%w: menus returned %d", pos.ErrFetchFailed, resp.StatusCode())
	}

	outOfStock, pageErrors := a.fetchOutOfStock(ctx, tenantID, restaurant, token.AccessToken)
	return pos.FetchResult{Catalog: normalize(menus, outOfStock), PageErrors: pageErrors}, nil
}

func (a *Adapter) fetchOutOfStock(ctx context.Context, tenantID, restaurant, accessToken string) (map[string]bool, []pos.PageError) {
	out := make(map[string]bool)
	var pageErrors []pos.PageError

	for page := 1; page <= maxStockPages; page++ {
		var entries []stockEntry
		resp, err := a.client.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetHeader(restaurantHeader, restaurant).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("pageSize", strconv.Itoa(a.cfg.StockPageSize)).
			SetResult(&entries).
			Get("/stock/v1/inventory")
		if err == nil && resp.IsError() {
			err = fmt.Errorf("inventory returned %d", resp.StatusCode())
		}
		if err != nil {
			pageErrors = append(pageErrors, pos.PageError{Page: "stock:" + strconv.Itoa(page), Err: err})
			a.logger.Warn("Stock page failed",
				zap.String("tenant_id", tenantID),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		for _, e := range entries {
			if e.Status == "OUT_OF_STOCK" {
				out[e.GUID] = true
			}
		}
		if len(entries) < a.cfg.StockPageSize {
			break
		}
	}
	return out, pageErrors
}

// normalize flattens menu groups (nested groups follow their parent) and
// resolves modifier references.
func normalize(menus menusResponse, outOfStock map[string]bool) reconcile.Catalog {
	catalog := reconcile.Catalog{Provider: string(pos.ProviderToast)}

	var walk func(g menuGroup)
	walk = func(g menuGroup) {
		cat := reconcile.Category{
			ProviderCategoryID: g.GUID,
			Name:               g.Name,
			Description:        g.Description,
		}
		for _, mi := range g.MenuItems {
			cat.Items = append(cat.Items, normalizeItem(mi, menus, outOfStock))
		}
		catalog.Categories = append(catalog.Categories, cat)
		for _, child := range g.MenuGroups {
			walk(child)
		}
	}

	for _, m := range menus.Menus {
		for _, g := range m.MenuGroups {
			walk(g)
		}
	}
	return catalog
}

func normalizeItem(mi menuItem, menus menusResponse, outOfStock map[string]bool) reconcile.Item {
	item := reconcile.Item{
		ProviderItemID: mi.GUID,
		Name:           mi.Name,
		Description:    mi.Description,
		Price:          toMinorUnits(mi.Price),
		Available:      !outOfStock[mi.GUID],
	}
	if mi.Image != "" {
		img := mi.Image
		item.ImageURL = &img
	}

	for _, ref := range mi.ModifierGroupReferences {
		group, ok := menus.ModifierGroupReferences[strconv.FormatInt(ref, 10)]
		if !ok {
			continue
		}
		mod := reconcile.Modifier{
			ProviderModifierID: group.GUID,
			Name:               group.Name,
			Required:           group.RequiredMode == "REQUIRED",
		}
		if group.MinSelections != nil {
			mod.MinSelections = *group.MinSelections
		}
		if group.MaxSelections != nil {
			mod.MaxSelections = *group.MaxSelections
		}
		if mod.Required && mod.MinSelections == 0 {
			mod.MinSelections = 1
		}

		for _, optRef := range group.ModifierOptionReferences {
			opt, ok := menus.ModifierOptionReferences[strconv.FormatInt(optRef, 10)]
			if !ok {
				continue
			}
			mod.Options = append(mod.Options, reconcile.ModifierOption{
				ProviderOptionID: opt.GUID,
				Name:             opt.Name,
				Price:            toMinorUnits(opt.Price),
				Available:        !outOfStock[opt.GUID],
			})
		}
		item.Modifiers = append(item.Modifiers, mod)
	}
	return item
}

// toMinorUnits converts a decimal dollar amount to cents, rounding half away from zero.
func toMinorUnits(price decimal.NullDecimal) int64 {
	if !price.Valid {
		return 0
	}
	return price.Decimal.Shift(2).Round(0).IntPart()
}
