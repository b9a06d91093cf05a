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

const categoriesPath = "products/categories"

func (d *Dispatcher) categoryOps() []Operation {
	return []Operation{
		{
			Name:        "list_categories",
			Description: "הצגת רשימת הקטגוריות בחנות",
			Schema:      Schema{Separator: SepNone},
			Run:         d.listCategories,
		},
		{
			Name:        "create_category",
			Description: "יצירת קטגוריה חדשה, אפשר עם תיאור וקטגוריית אב",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם קטגוריה", Kind: KindString, Required: true},
					{Name: "description", Label: "תיאור", Kind: KindString},
					{Name: "parent", Label: "קטגוריית אב", Kind: KindString},
				},
				Usage: "נדרש לפחות שם לקטגוריה",
			},
			Run: d.createCategory,
		},
		{
			Name:        "update_category",
			Description: "עדכון קטגוריה. שדות: שם, תיאור, אב",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם קטגוריה", Kind: KindString, Required: true},
					{Name: "field", Label: "שדה לעדכון", Kind: KindString, Required: true},
					{Name: "value", Label: "ערך חדש", Kind: KindText, Required: true},
				},
				Usage: "נדרש: שם קטגוריה | שדה לעדכון | ערך חדש",
			},
			Run: d.updateCategory,
		},
		{
			Name:        "delete_category",
			Description: "מחיקת קטגוריה ריקה",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "name", Label: "שם קטגוריה", Kind: KindText, Required: true}},
				Usage:     "נדרש שם קטגוריה",
			},
			Run: d.deleteCategory,
		},
		{
			Name:        "assign_product_to_categories",
			Description: "שיוך מוצר לקטגוריות (שמות מופרדים בפסיקים)",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "product", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "categories", Label: "שמות קטגוריות", Kind: KindString, Required: true},
				},
				Usage: "נדרש: שם מוצר | שמות קטגוריות (מופרדים בפסיקים)",
			},
			Run: d.assignCategories,
		},
	}
}

func (d *Dispatcher) categories(ctx context.Context) ([]woocommerce.Category, error) {
	return woocommerce.Get[[]woocommerce.Category](ctx, d.deps.Client, categoriesPath, url.Values{"per_page": {"100"}})
}

func findCategory(categories []woocommerce.Category, name string) (woocommerce.Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return woocommerce.Category{}, false
}

func (d *Dispatcher) listCategories(ctx context.Context, _ Args) (string, error) {
	cats, err := d.categories(ctx)
	if err != nil {
		return "", err
	}
	if len(cats) == 0 {
		return "אין קטגוריות בחנות", nil
	}

	names := make(map[int]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		line := fmt.Sprintf("- %s (ID: %d) | %d מוצרים", c.Name, c.ID, c.Count)
		if parent, ok := names[c.Parent]; ok && c.Parent != 0 {
			line += " | קטגוריית אב: " + parent
		}
		lines = append(lines, line)
	}
	return "הקטגוריות בחנות:\n" + strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) createCategory(ctx context.Context, args Args) (string, error) {
	body := map[string]any{
		"name":        args.String("name"),
		"description": args.String("description"),
	}
	if args.Has("parent") {
		cats, err := d.categories(ctx)
		if err != nil {
			return "", err
		}
		parent, ok := findCategory(cats, args.String("parent"))
		if !ok {
			return "", apperr.Validation("לא נמצאה קטגוריית אב בשם %s", args.String("parent"))
		}
		body["parent"] = parent.ID
	}

	c, err := woocommerce.Post[woocommerce.Category](ctx, d.deps.Client, categoriesPath, body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("הקטגוריה %s נוצרה בהצלחה (ID: %d)", c.Name, c.ID), nil
}

func (d *Dispatcher) updateCategory(ctx context.Context, args Args) (string, error) {
	name, label, value := args.String("name"), args.String("field"), args.String("value")

	cats, err := d.categories(ctx)
	if err != nil {
		return "", err
	}
	c, ok := findCategory(cats, name)
	if !ok {
		return "", apperr.NotFound("קטגוריה", name)
	}

	update := map[string]any{}
	switch label {
	case "שם":
		update["name"] = value
	case "תיאור":
		update["description"] = value
	case "אב":
		parent, ok := findCategory(cats, value)
		if !ok {
			return "", apperr.Validation("לא נמצאה קטגוריית אב בשם %s", value)
		}
		update["parent"] = parent.ID
	default:
		return "", apperr.Validation("שדה לא חוקי. אפשרויות: שם, תיאור, אב")
	}

	if _, err := woocommerce.Put[woocommerce.Category](ctx, d.deps.Client, categoryPath(c.ID), update); err != nil {
		return "", err
	}
	return fmt.Sprintf("הקטגוריה %s עודכנה בהצלחה", name), nil
}

func (d *Dispatcher) deleteCategory(ctx context.Context, args Args) (string, error) {
	name := args.String("name")
	cats, err := d.categories(ctx)
	if err != nil {
		return "", err
	}
	c, ok := findCategory(cats, name)
	if !ok {
		return "", apperr.NotFound("קטגוריה", name)
	}
	if c.Count > 0 {
		return "", apperr.Validation("לא ניתן למחוק את הקטגוריה %s כי יש בה %d מוצרים", name, c.Count)
	}

	if _, err := woocommerce.Delete[woocommerce.Category](ctx, d.deps.Client, categoryPath(c.ID), url.Values{"force": {"true"}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("הקטגוריה %s נמחקה בהצלחה", name), nil
}

func (d *Dispatcher) assignCategories(ctx context.Context, args Args) (string, error) {
	names := splitList(args.String("categories"))
	if len(names) == 0 {
		return "", apperr.Validation("נדרש: שם מוצר | שמות קטגוריות (מופרדים בפסיקים)")
	}

	p, err := d.resolve(ctx, args.String("product"))
	if err != nil {
		return "", err
	}
	cats, err := d.categories(ctx)
	if err != nil {
		return "", err
	}

	refs := make([]woocommerce.CategoryRef, 0, len(names))
	var missing []string
	for _, n := range names {
		c, ok := findCategory(cats, n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		refs = append(refs, woocommerce.CategoryRef{ID: c.ID})
	}
	if len(missing) > 0 {
		return "", apperr.Validation("לא נמצאו הקטגוריות הבאות: %s", strings.Join(missing, ", "))
	}

	if _, err := d.deps.Client.UpdateProduct(ctx, p.ID, map[string]any{"categories": refs}); err != nil {
		return "", err
	}
	return fmt.Sprintf("המוצר %s שויך בהצלחה לקטגוריות: %s", p.Name, strings.Join(names, ", ")), nil
}

func categoryPath(id int) string {
	return categoriesPath + "/" + strconv.Itoa(id)
}
