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

var productNameSchema = Schema{
	Separator: SepNone,
	Fields:    []Field{{Name: "name", Label: "שם מוצר", Kind: KindText, Required: true}},
	Usage:     "נדרש שם מוצר",
}

var salesPeriods = map[string]string{
	"week":       "week",
	"month":      "month",
	"last_month": "last_month",
	"year":       "year",
	"שבוע":       "week",
	"חודש":       "month",
	"חודש שעבר":  "last_month",
	"שנה":        "year",
}

func (d *Dispatcher) productOps() []Operation {
	return []Operation{
		{
			Name:        "list_products",
			Description: "הצגת רשימת המוצרים בחנות",
			Schema:      Schema{Separator: SepNone},
			Run:         d.listProducts,
		},
		{
			Name:        "get_product_details",
			Description: "הצגת פרטי מוצר: מחיר, תיאור, מלאי ומחיר מבצע",
			Schema:      productNameSchema,
			Run:         d.productDetails,
		},
		{
			Name:        "create_product",
			Description: "יוצר מוצר חדש",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "description", Label: "תיאור", Kind: KindString, Required: true},
					{Name: "price", Label: "מחיר", Kind: KindDecimal, Required: true},
					{Name: "stock", Label: "כמות במלאי", Kind: KindInt},
				},
				Usage: "נדרש לפחות: שם מוצר | תיאור | מחיר",
			},
			Run: d.createProduct,
		},
		{
			Name:        "edit_product",
			Description: "עריכת מוצר קיים. שורה ראשונה: שם המוצר, ואחריה שורות שדה: ערך (שם/תיאור/מחיר/מלאי)",
			Schema: Schema{
				Separator: SepLines,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "changes", Label: "שדה: ערך", Kind: KindText, Required: true},
				},
				Usage: "נדרש שם מוצר ולפחות שדה אחד לעדכון",
			},
			Run: d.editProduct,
		},
		{
			Name:        "delete_product",
			Description: "מחיקת מוצר מהחנות",
			Schema:      productNameSchema,
			Run:         d.deleteProduct,
		},
		{
			Name:        "update_price",
			Description: "עדכון מחיר מוצר: מחיר חדש או אחוז שינוי (למשל -10%)",
			Schema: Schema{
				Separator: SepLastToken,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "price", Label: "המחיר", Kind: KindPriceChange, Required: true},
				},
				Usage: "נדרש שם מוצר ומחיר חדש או אחוז שינוי",
			},
			Run: d.updatePrice,
		},
		{
			Name:        "remove_discount",
			Description: "הסרת מחיר מבצע ממוצר",
			Schema:      productNameSchema,
			Run:         d.removeDiscount,
		},
		{
			Name:        "get_sales",
			Description: "הצגת נתוני מכירות לתקופה (שבוע/חודש/שנה)",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "period", Label: "תקופה", Kind: KindString}},
			},
			Run: d.getSales,
		},
		{
			Name:        "list_product_images",
			Description: "הצגת התמונות של מוצר",
			Schema:      productNameSchema,
			Run:         d.listProductImages,
		},
		{
			Name:        "delete_product_image",
			Description: "מחיקת תמונה ממוצר לפי מספרה ברשימת התמונות",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "name", Label: "שם מוצר", Kind: KindString, Required: true},
					{Name: "number", Label: "מספר תמונה", Kind: KindInt, Required: true},
				},
				Usage: "נדרש: שם מוצר | מספר תמונה",
			},
			Run: d.deleteProductImage,
		},
	}
}

// ProductList renders products the way list_products does. An empty list
// renders as the empty-store message.
func ProductList(products []woocommerce.Product) string {
	if len(products) == 0 {
		return "לא נמצאו מוצרים בחנות"
	}
	return "המוצרים בחנות:\n" + ProductLines(products)
}

// ProductLines renders one "- name: ₪price | stock" line per product.
func ProductLines(products []woocommerce.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		price := p.Price
		if price == "" {
			price = "לא זמין"
		}
		lines = append(lines, fmt.Sprintf("- %s: ₪%s | %s", p.Name, price, stockSummary(p)))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) listProducts(ctx context.Context, _ Args) (string, error) {
	products, err := d.deps.Client.ListProducts(ctx, d.deps.ProductListSize)
	if err != nil {
		return "", err
	}
	return ProductList(products), nil
}

func (d *Dispatcher) productDetails(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	full, err := d.deps.Client.GetProduct(ctx, p.ID)
	if err != nil {
		return "", asNotFound(err, "מוצר", args.String("name"))
	}

	description := stripHTML(full.Description)
	if description == "" {
		description = "אין תיאור"
	}
	price := full.Price
	if price == "" {
		price = "לא זמין"
	}
	lines := []string{
		fmt.Sprintf("פרטי המוצר %s:", full.Name),
		"מחיר: ₪" + price,
		"תיאור: " + description,
		"מלאי: " + stockSummary(*full),
	}
	if full.SalePrice != "" {
		lines = append(lines, "מחיר מבצע: ₪"+full.SalePrice)
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) createProduct(ctx context.Context, args Args) (string, error) {
	body := map[string]any{
		"name":          args.String("name"),
		"type":          "simple",
		"status":        "publish",
		"description":   args.String("description"),
		"regular_price": formatMoney(args.Decimal("price")),
	}
	if args.Has("stock") {
		body["manage_stock"] = true
		body["stock_quantity"] = args.Int("stock")
	}
	p, err := woocommerce.Post[woocommerce.Product](ctx, d.deps.Client, "products", body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("המוצר %s נוצר בהצלחה", p.Name), nil
}

func (d *Dispatcher) editProduct(ctx context.Context, args Args) (string, error) {
	update := map[string]any{}
	for _, kv := range keyValues(args.String("changes")) {
		switch kv[0] {
		case "שם":
			update["name"] = kv[1]
		case "תיאור":
			update["description"] = kv[1]
		case "מחיר":
			price, err := parseDecimal(kv[1])
			if err != nil {
				return "", apperr.Validation("מחיר חייב להיות מספר")
			}
			update["regular_price"] = formatMoney(price)
		case "מלאי":
			qty, err := strconv.Atoi(kv[1])
			if err != nil {
				return "", apperr.Validation("מלאי חייב להיות מספר")
			}
			update["manage_stock"] = true
			update["stock_quantity"] = qty
		}
	}
	if len(update) == 0 {
		return "", apperr.Validation("לא נמצאו שדות תקינים לעדכון")
	}

	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	updated, err := d.deps.Client.UpdateProduct(ctx, p.ID, update)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("המוצר %s עודכן בהצלחה", updated.Name), nil
}

func (d *Dispatcher) deleteProduct(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	if _, err := woocommerce.Delete[woocommerce.Product](ctx, d.deps.Client, productPath(p.ID), url.Values{"force": {"true"}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("המוצר %s נמחק בהצלחה", p.Name), nil
}

func (d *Dispatcher) updatePrice(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}

	current := money(p.Price)
	if p.Price == "" {
		current = money(p.RegularPrice)
	}
	newPrice := args.PriceChange("price").Apply(current)
	if newPrice < 0 {
		return "", apperr.Validation("המחיר החדש חייב להיות חיובי")
	}

	if _, err := d.deps.Client.UpdateProduct(ctx, p.ID, map[string]any{"regular_price": formatMoney(newPrice)}); err != nil {
		return "", err
	}
	return fmt.Sprintf("המחיר של %s עודכן בהצלחה ל-₪%.2f", p.Name, newPrice), nil
}

func (d *Dispatcher) removeDiscount(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	if _, err := d.deps.Client.UpdateProduct(ctx, p.ID, map[string]any{"sale_price": ""}); err != nil {
		return "", err
	}
	return fmt.Sprintf("ההנחה הוסרה בהצלחה מהמוצר %s", p.Name), nil
}

func (d *Dispatcher) getSales(ctx context.Context, args Args) (string, error) {
	period := "week"
	if args.Has("period") {
		p, ok := salesPeriods[strings.ToLower(args.String("period"))]
		if !ok {
			return "", apperr.Validation("תקופה לא חוקית. אפשרויות: שבוע, חודש, חודש שעבר, שנה")
		}
		period = p
	}

	reports, err := woocommerce.Get[[]woocommerce.SalesReport](ctx, d.deps.Client, "reports/sales", url.Values{"period": {period}})
	if err != nil {
		return "", err
	}
	if len(reports) == 0 {
		return "אין נתוני מכירות לתקופה זו", nil
	}
	r := reports[0]
	return fmt.Sprintf("נתוני מכירות (%s):\nסך המכירות: ₪%s\nמכירות נטו: ₪%s\nמספר הזמנות: %d\nפריטים שנמכרו: %d",
		period, r.TotalSales, r.NetSales, r.TotalOrders, r.TotalItems), nil
}

func (d *Dispatcher) listProductImages(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	if len(p.Images) == 0 {
		return "אין תמונות למוצר זה", nil
	}
	lines := make([]string, 0, len(p.Images))
	for i, img := range p.Images {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, img.Src))
	}
	return "תמונות המוצר:\n" + strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) deleteProductImage(ctx context.Context, args Args) (string, error) {
	p, err := d.resolve(ctx, args.String("name"))
	if err != nil {
		return "", err
	}
	n := args.Int("number")
	if n < 1 || n > len(p.Images) {
		return "", apperr.Validation("מספר תמונה לא חוקי")
	}
	if _, err := d.deps.Media.Detach(ctx, p.ID, p.Images[n-1].ID); err != nil {
		return "", err
	}
	return "התמונה נמחקה בהצלחה", nil
}

func productPath(id int) string {
	return "products/" + strconv.Itoa(id)
}
