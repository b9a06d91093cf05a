package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

const orderListSize = "10"

var orderIDField = Field{Name: "id", Label: "מזהה הזמנה", Kind: KindInt, Required: true}

func (d *Dispatcher) orderOps() []Operation {
	return []Operation{
		{
			Name:        "list_orders",
			Description: "הצגת ההזמנות האחרונות, אפשר לסנן לפי סטטוס",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "status", Label: "סטטוס", Kind: KindString}},
			},
			Run: d.listOrders,
		},
		{
			Name:        "get_order_details",
			Description: "הצגת פרטי הזמנה מלאים לפי מזהה",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{orderIDField},
				Usage:     "נדרש מזהה הזמנה",
			},
			Run: d.orderDetails,
		},
		{
			Name:        "update_order_status",
			Description: "עדכון סטטוס הזמנה (pending, processing, on-hold, completed, cancelled, refunded, failed)",
			Schema: Schema{
				Separator: SepWhitespace,
				Fields: []Field{
					orderIDField,
					{Name: "status", Label: "סטטוס", Kind: KindText, Required: true},
				},
				Usage: "נדרש מזהה הזמנה וסטטוס חדש",
			},
			Run: d.updateOrderStatus,
		},
		{
			Name:        "search_orders",
			Description: "חיפוש הזמנות. פורמט: שדה:ערך (לקוח, סטטוס, תאריך) או טקסט חופשי",
			Schema: Schema{
				Separator: SepColon,
				Fields: []Field{
					{Name: "field", Label: "שדה", Kind: KindString, Required: true},
					{Name: "value", Label: "ערך", Kind: KindText},
				},
				Usage: "נדרש ערך לחיפוש",
			},
			Run: d.searchOrders,
		},
		{
			Name:        "create_order",
			Description: "יצירת הזמנה חדשה. מוצרים בפורמט מזהה_מוצר:כמות,מזהה_מוצר:כמות",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "first_name", Label: "שם פרטי", Kind: KindString, Required: true},
					{Name: "last_name", Label: "שם משפחה", Kind: KindString, Required: true},
					{Name: "email", Label: "אימייל", Kind: KindString, Required: true},
					{Name: "phone", Label: "טלפון", Kind: KindString, Required: true},
					{Name: "address", Label: "כתובת", Kind: KindString, Required: true},
					{Name: "city", Label: "עיר", Kind: KindString, Required: true},
					{Name: "postcode", Label: "מיקוד", Kind: KindString, Required: true},
					{Name: "items", Label: "מוצרים", Kind: KindString, Required: true},
					{Name: "shipping", Label: "שיטת משלוח", Kind: KindString},
				},
				Usage: "נדרשים כל הפרטים: שם פרטי | שם משפחה | אימייל | טלפון | כתובת | עיר | מיקוד | מוצרים",
			},
			Run: d.createOrder,
		},
	}
}

// orderLine is the one-line summary shared by the order list and search.
func orderLine(o woocommerce.Order) string {
	line := fmt.Sprintf("#%d: %s | ₪%s | %s", o.ID, statusHebrew(o.Status), o.Total, dateOnly(o.DateCreated))
	if name := fullName(o.Billing.FirstName, o.Billing.LastName); name != "" {
		line += " | " + name
	}
	return line
}

func orderLines(orders []woocommerce.Order) string {
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, orderLine(o))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) listOrders(ctx context.Context, args Args) (string, error) {
	query := url.Values{"per_page": {orderListSize}}
	if args.Has("status") {
		status, err := orderStatus(args.String("status"))
		if err != nil {
			return "", err
		}
		query.Set("status", status)
	}

	orders, err := woocommerce.Get[[]woocommerce.Order](ctx, d.deps.Client, "orders", query)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "אין הזמנות במערכת", nil
	}
	return "ההזמנות במערכת:\n" + orderLines(orders), nil
}

func (d *Dispatcher) orderDetails(ctx context.Context, args Args) (string, error) {
	id := args.Int("id")
	o, err := woocommerce.Get[woocommerce.Order](ctx, d.deps.Client, orderPath(id), nil)
	if err != nil {
		return "", asNotFound(err, "הזמנה", strconv.Itoa(id))
	}

	lines := []string{
		fmt.Sprintf("הזמנה #%d", o.ID),
		"סטטוס: " + statusHebrew(o.Status),
		"תאריך: " + dateOnly(o.DateCreated),
		`סה"כ: ₪` + o.Total,
		"\nפרטי לקוח:",
		"שם: " + fullName(o.Billing.FirstName, o.Billing.LastName),
		"טלפון: " + orDash(o.Billing.Phone),
		"אימייל: " + orDash(o.Billing.Email),
		"\nכתובת למשלוח:",
		o.Shipping.Address1,
		fmt.Sprintf("%s, %s", o.Shipping.City, o.Shipping.Postcode),
		"\nפריטים:",
	}
	for _, item := range o.LineItems {
		lines = append(lines, fmt.Sprintf("- %s: %d יח' × ₪%s", item.Name, item.Quantity, formatMoney(item.Price)))
	}

	notes, err := woocommerce.Get[[]woocommerce.OrderNote](ctx, d.deps.Client, orderPath(id)+"/notes", nil)
	if err != nil {
		// Notes are secondary; the order itself was found.
		d.log.WarnContext(ctx, "Failed to load order notes", "order_id", id, "error", err)
	}
	var internal []string
	for _, n := range notes {
		if !n.CustomerNote {
			internal = append(internal, "- "+stripHTML(n.Note))
		}
	}
	if len(internal) > 0 {
		lines = append(lines, "\nהערות:")
		lines = append(lines, internal...)
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) updateOrderStatus(ctx context.Context, args Args) (string, error) {
	id := args.Int("id")
	status, err := orderStatus(args.String("status"))
	if err != nil {
		return "", err
	}
	if _, err := woocommerce.Put[woocommerce.Order](ctx, d.deps.Client, orderPath(id), map[string]any{"status": status}); err != nil {
		return "", asNotFound(err, "הזמנה", strconv.Itoa(id))
	}
	return fmt.Sprintf("סטטוס ההזמנה #%d עודכן ל-%s", id, statusHebrew(status)), nil
}

func (d *Dispatcher) searchOrders(ctx context.Context, args Args) (string, error) {
	query := url.Values{}
	if !args.Has("value") {
		query.Set("search", args.String("field"))
	} else {
		value := args.String("value")
		switch strings.ToLower(args.String("field")) {
		case "לקוח", "customer":
			id, err := strconv.Atoi(value)
			if err != nil {
				return "", apperr.Validation("מזהה לקוח חייב להיות מספר")
			}
			query.Set("customer", strconv.Itoa(id))
		case "סטטוס", "status":
			status, err := orderStatus(value)
			if err != nil {
				return "", err
			}
			query.Set("status", status)
		case "תאריך", "date":
			from, to, err := dateRange(value)
			if err != nil {
				return "", err
			}
			query.Set("after", from+"T00:00:00")
			query.Set("before", to+"T23:59:59")
		default:
			return "", apperr.Validation("שדה חיפוש לא חוקי. אפשרויות: לקוח, סטטוס, תאריך")
		}
	}

	orders, err := woocommerce.Get[[]woocommerce.Order](ctx, d.deps.Client, "orders", query)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "לא נמצאו הזמנות מתאימות", nil
	}
	return "תוצאות החיפוש:\n" + orderLines(orders), nil
}

// dateRange accepts a single date or "from עד to", "from..to" and "from - to".
// ISO dates contain hyphens, so a bare "-" only separates when surrounded by spaces.
func dateRange(value string) (string, string, error) {
	from, to := value, value
	for _, sep := range []string{" עד ", "..", " - "} {
		if a, b, ok := strings.Cut(value, sep); ok {
			from, to = strings.TrimSpace(a), strings.TrimSpace(b)
			break
		}
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return "", "", apperr.Validation("תאריך לא תקין: %s. נדרש פורמט YYYY-MM-DD", d)
		}
	}
	return from, to, nil
}

func (d *Dispatcher) createOrder(ctx context.Context, args Args) (string, error) {
	email := args.String("email")
	if err := d.validate.Var(email, "email"); err != nil {
		return "", apperr.Validation("כתובת האימייל %s אינה תקינה", email)
	}

	items, err := parseLineItems(args.String("items"))
	if err != nil {
		return "", err
	}

	billing := woocommerce.Address{
		FirstName: args.String("first_name"),
		LastName:  args.String("last_name"),
		Address1:  args.String("address"),
		City:      args.String("city"),
		Postcode:  args.String("postcode"),
		Country:   "IL",
		Email:     email,
		Phone:     args.String("phone"),
	}
	shipping := billing
	shipping.Email, shipping.Phone = "", ""

	body := map[string]any{
		"status":     "pending",
		"billing":    billing,
		"shipping":   shipping,
		"line_items": items,
	}
	if args.Has("shipping") {
		method := args.String("shipping")
		body["shipping_lines"] = []woocommerce.ShippingLine{{MethodID: method, MethodTitle: method}}
	}

	o, err := woocommerce.Post[woocommerce.Order](ctx, d.deps.Client, "orders", body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ההזמנה נוצרה בהצלחה! מספר הזמנה: #%d", o.ID), nil
}

func parseLineItems(s string) ([]woocommerce.LineItem, error) {
	invalid := apperr.Validation("פורמט מוצרים לא תקין. נדרש: מזהה_מוצר:כמות,מזהה_מוצר:כמות")
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, invalid
	}
	items := make([]woocommerce.LineItem, 0, len(parts))
	for _, part := range parts {
		idStr, qtyStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, invalid
		}
		id, err1 := strconv.Atoi(strings.TrimSpace(idStr))
		qty, err2 := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err1 != nil || err2 != nil || id <= 0 || qty <= 0 {
			return nil, invalid
		}
		items = append(items, woocommerce.LineItem{ProductID: id, Quantity: qty})
	}
	return items, nil
}

func orderPath(id int) string {
	return "orders/" + strconv.Itoa(id)
}
