package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

// DefaultLowStockThreshold applies to products without their own low_stock_amount.
const DefaultLowStockThreshold = 5

var stockActions = map[string]string{
	"set":      "עודכן ל",
	"add":      "נוספו",
	"subtract": "הורדו",
}

func (d *Dispatcher) inventoryOps() []Operation {
	return []Operation{
		{
			Name:        "get_low_stock_products",
			Description: "הצגת מוצרים במלאי נמוך",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "threshold", Label: "סף התראה", Kind: KindInt}},
			},
			Run: d.lowStock,
		},
		{
			Name:        "update_product_stock",
			Description: "עדכון כמות מלאי למוצר. פעולות: set (קביעה), add (הוספה), subtract (הורדה)",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "action", Label: "פעולה", Kind: KindString, Required: true},
					{Name: "quantity", Label: "כמות", Kind: KindInt, Required: true},
				},
				Usage: "נדרש: שם מוצר | פעולה (set/add/subtract) | כמות",
			},
			Run: d.updateStock,
		},
		{
			Name:        "get_product_stock_status",
			Description: "הצגת סטטוס מלאי מפורט למוצר",
			Schema:      productNameSchema,
			Run:         d.stockStatus,
		},
		{
			Name:        "set_product_low_stock_threshold",
			Description: "הגדרת סף התראה למלאי נמוך של מוצר",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "threshold", Label: "סף התראה", Kind: KindInt, Required: true},
				},
				Usage: "נדרש: שם מוצר | סף התראה",
			},
			Run: d.setLowStockThreshold,
		},
		{
			Name:        "manage_product_stock_by_attributes",
			Description: "ניהול מלאי לפי מאפיינים. שורה ראשונה: שם המוצר, ואחריה שורות מאפיין: ערך | כמות",
			Schema: Schema{
				Separator: SepLines,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "lines", Label: "מאפיין: ערך | כמות", Kind: KindText, Required: true},
				},
				Usage: "נדרש: שם מוצר בשורה ראשונה, ואחריו שורות של מאפיין: ערך | כמות",
			},
			Run: d.stockByAttributes,
		},
	}
}

// LowStock returns managed products whose quantity is at or below their own
// low_stock_amount, or below threshold when they have none.
func LowStock(ctx context.Context, c *woocommerce.Client, threshold int) ([]woocommerce.Product, error) {
	products, err := woocommerce.Get[[]woocommerce.Product](ctx, c, "products", url.Values{
		"per_page":     {"100"},
		"stock_status": {"instock"},
	})
	if err != nil {
		return nil, err
	}
	var low []woocommerce.Product
	for _, p := range products {
		if !p.ManageStock || p.StockQuantity == nil {
			continue
		}
		if *p.StockQuantity <= lowStockLimit(p, threshold) {
			low = append(low, p)
		}
	}
	return low, nil
}

func lowStockLimit(p woocommerce.Product, threshold int) int {
	if p.LowStockAmount != nil {
		return *p.LowStockAmount
	}
	return threshold
}

// FormatLowStock renders the low stock list. It returns "" for no products.
func FormatLowStock(products []woocommerce.Product, threshold int) string {
	if len(products) == 0 {
		return ""
	}
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s: נשארו %d יחידות (סף התראה: %d)",
			p.Name, intValue(p.StockQuantity), lowStockLimit(p, threshold)))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) lowStock(ctx context.Context, args Args) (string, error) {
	threshold := DefaultLowStockThreshold
	if args.Has("threshold") {
		threshold = args.Int("threshold")
	}
	products, err := LowStock(ctx, d.deps.Client, threshold)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "לא נמצאו מוצרים במלאי נמוך", nil
	}
	return "מוצרים במלאי נמוך:\n" + FormatLowStock(products, threshold), nil
}

func (d *Dispatcher) updateStock(ctx context.Context, args Args) (string, error) {
	action := strings.ToLower(args.String("action"))
	verb, ok := stockActions[action]
	if !ok {
		return "", apperr.Validation("פעולה לא חוקית. אפשרויות: set, add, subtract")
	}
	qty := args.Int("quantity")

	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}

	current := intValue(p.StockQuantity)
	var next int
	switch action {
	case "set":
		next = qty
	case "add":
		next = current + qty
	case "subtract":
		next = current - qty
	}

	updated, err := d.deps.Client.UpdateProduct(ctx, p.ID, map[string]any{
		"manage_stock":   true,
		"stock_quantity": next,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("המלאי של %s %s %d יחידות (מלאי נוכחי: %d)", p.Name, verb, qty, intValue(updated.StockQuantity)), nil
}

func (d *Dispatcher) stockStatus(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}

	manage, backorders := "לא פעיל", "לא מותר"
	if p.ManageStock {
		manage = "פעיל"
	}
	if p.BackordersAllowed {
		backorders = "מותר"
	}
	lines := []string{
		"שם: " + p.Name,
		"ניהול מלאי: " + manage,
		fmt.Sprintf("כמות במלאי: %d", intValue(p.StockQuantity)),
		"סטטוס: " + p.StockStatus,
		"הזמנות מראש: " + backorders,
	}
	if p.LowStockAmount != nil {
		lines = append(lines, fmt.Sprintf("סף התראת מלאי נמוך: %d", *p.LowStockAmount))
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) setLowStockThreshold(ctx context.Context, args Args) (string, error) {
	threshold := args.Int("threshold")
	if threshold < 0 {
		return "", apperr.Validation("סף ההתראה חייב להיות מספר שלם")
	}
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	if _, err := d.deps.Client.UpdateProduct(ctx, p.ID, map[string]any{
		"manage_stock":     true,
		"low_stock_amount": threshold,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("סף ההתראה למלאי נמוך עבור %s נקבע ל-%d יחידות", p.Name, threshold), nil
}

type attributeStock struct {
	name   string
	option string
	qty    int
}

func parseAttributeLines(text string) ([]attributeStock, error) {
	var out []attributeStock
	for _, line := range strings.Split(text, "\n") {
		attr, qtyStr, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		name, option, ok := strings.Cut(attr, ":")
		if !ok {
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil {
			return nil, apperr.Validation("הכמות בשורה '%s' חייבת להיות מספר שלם", strings.TrimSpace(line))
		}
		name, option = strings.TrimSpace(name), strings.TrimSpace(option)
		if name == "" || option == "" {
			continue
		}
		out = append(out, attributeStock{name: name, option: option, qty: qty})
	}
	if len(out) == 0 {
		return nil, apperr.Validation("לא נמצאו מאפיינים תקינים")
	}
	return out, nil
}

// stockByAttributes updates the variation matching each attribute option and
// creates one when none exists.
func (d *Dispatcher) stockByAttributes(ctx context.Context, args Args) (string, error) {
	entries, err := parseAttributeLines(args.String("lines"))
	if err != nil {
		return "", err
	}

	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	base := productPath(p.ID) + "/variations"
	existing, err := woocommerce.Get[[]woocommerce.Variation](ctx, d.deps.Client, base, url.Values{"per_page": {"100"}})
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		body := map[string]any{
			"manage_stock":   true,
			"stock_quantity": e.qty,
		}
		if v, ok := matchVariation(existing, e); ok {
			if _, err := woocommerce.Put[woocommerce.Variation](ctx, d.deps.Client, base+"/"+strconv.Itoa(v.ID), body); err != nil {
				return "", err
			}
			continue
		}
		body["attributes"] = []woocommerce.VariationAttribute{{Name: e.name, Option: e.option}}
		if _, err := woocommerce.Post[woocommerce.Variation](ctx, d.deps.Client, base, body); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("המלאי עודכן בהצלחה עבור %d וריאציות", len(entries)), nil
}

func matchVariation(variations []woocommerce.Variation, e attributeStock) (woocommerce.Variation, bool) {
	for _, v := range variations {
		for _, a := range v.Attributes {
			if strings.EqualFold(a.Name, e.name) && strings.EqualFold(a.Option, e.option) {
				return v, true
			}
		}
	}
	return woocommerce.Variation{}, false
}
