package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

var customerFields = []struct {
	label   string
	field   string
	billing bool
}{
	{"שם פרטי", "first_name", false},
	{"שם משפחה", "last_name", false},
	{"אימייל", "email", false},
	{"טלפון", "phone", true},
	{"כתובת", "address_1", true},
	{"עיר", "city", true},
	{"מיקוד", "postcode", true},
}

func (d *Dispatcher) customerOps() []Operation {
	return []Operation{
		{
			Name:        "list_customers",
			Description: "הצגת רשימת הלקוחות בחנות",
			Schema:      Schema{Separator: SepNone},
			Run:         d.listCustomers,
		},
		{
			Name:        "get_customer_details",
			Description: "הצגת פרטי לקוח, סך רכישות והזמנות אחרונות. חיפוש לפי מזהה, אימייל או שם",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "query", Label: "מזהה/אימייל/שם לקוח", Kind: KindText, Required: true}},
				Usage:     "נדרש מזהה, אימייל או שם לקוח",
			},
			Run: d.customerDetails,
		},
		{
			Name:        "create_customer",
			Description: "יצירת לקוח חדש",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "first_name", Label: "שם פרטי", Kind: KindString, Required: true},
					{Name: "last_name", Label: "שם משפחה", Kind: KindString, Required: true},
					{Name: "email", Label: "אימייל", Kind: KindString, Required: true},
					{Name: "phone", Label: "טלפון", Kind: KindString},
					{Name: "address", Label: "כתובת", Kind: KindString},
					{Name: "city", Label: "עיר", Kind: KindString},
					{Name: "postcode", Label: "מיקוד", Kind: KindString},
				},
				Usage: "נדרש לפחות: שם פרטי | שם משפחה | אימייל",
			},
			Run: d.createCustomer,
		},
		{
			Name:        "update_customer",
			Description: "עדכון פרטי לקוח. שדות: שם פרטי, שם משפחה, אימייל, טלפון, כתובת, עיר, מיקוד",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "query", Label: "מזהה/אימייל לקוח", Kind: KindString, Required: true},
					{Name: "field", Label: "שדה לעדכון", Kind: KindString, Required: true},
					{Name: "value", Label: "ערך חדש", Kind: KindText, Required: true},
				},
				Usage: "נדרש: מזהה/אימייל לקוח | שדה לעדכון | ערך חדש",
			},
			Run: d.updateCustomer,
		},
		{
			Name:        "search_customers",
			Description: "חיפוש לקוחות לפי שם או אימייל",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "query", Label: "טקסט לחיפוש", Kind: KindText, Required: true}},
				Usage:     "נדרש טקסט לחיפוש",
			},
			Run: d.searchCustomers,
		},
	}
}

func customerLine(c woocommerce.Customer) string {
	return fmt.Sprintf("- %s | אימייל: %s | טלפון: %s",
		fullName(c.FirstName, c.LastName), orDash(c.Email), orDash(c.Billing.Phone))
}

func (d *Dispatcher) listCustomers(ctx context.Context, _ Args) (string, error) {
	customers, err := woocommerce.Get[[]woocommerce.Customer](ctx, d.deps.Client, "customers", url.Values{"per_page": {"20"}})
	if err != nil {
		return "", err
	}
	if len(customers) == 0 {
		return "אין לקוחות בחנות", nil
	}
	lines := make([]string, 0, len(customers))
	for _, c := range customers {
		lines = append(lines, customerLine(c))
	}
	return "הלקוחות בחנות:\n" + strings.Join(lines, "\n"), nil
}

// findCustomer looks a customer up by numeric id, exact email or free-text search.
func (d *Dispatcher) findCustomer(ctx context.Context, query string) (woocommerce.Customer, error) {
	notFound := apperr.Validation("לא נמצא לקוח התואם ל-'%s'", query)

	if id, err := strconv.Atoi(query); err == nil {
		c, err := woocommerce.Get[woocommerce.Customer](ctx, d.deps.Client, customerPath(id), nil)
		if err != nil {
			var re *apperr.RemoteError
			if errors.As(err, &re) && !re.Transport && re.Status == 404 {
				return woocommerce.Customer{}, notFound
			}
			return woocommerce.Customer{}, err
		}
		return c, nil
	}

	q := url.Values{"search": {query}}
	if d.validate.Var(query, "email") == nil {
		q = url.Values{"email": {query}}
	}
	customers, err := woocommerce.Get[[]woocommerce.Customer](ctx, d.deps.Client, "customers", q)
	if err != nil {
		return woocommerce.Customer{}, err
	}
	if len(customers) == 0 {
		return woocommerce.Customer{}, notFound
	}
	return customers[0], nil
}

func (d *Dispatcher) customerDetails(ctx context.Context, args Args) (string, error) {
	c, err := d.findCustomer(ctx, args.String("query"))
	if err != nil {
		return "", err
	}

	orders, err := woocommerce.Get[[]woocommerce.Order](ctx, d.deps.Client, "orders", url.Values{
		"customer": {strconv.Itoa(c.ID)},
		"per_page": {"100"},
	})
	if err != nil {
		return "", err
	}
	var spent float64
	for _, o := range orders {
		if o.Status == "completed" {
			spent += money(o.Total)
		}
	}

	lines := []string{
		fmt.Sprintf("פרטי הלקוח %s:", fullName(c.FirstName, c.LastName)),
		"אימייל: " + orDash(c.Email),
		"טלפון: " + orDash(c.Billing.Phone),
		"כתובת: " + orDash(c.Billing.Address1),
		"עיר: " + orDash(c.Billing.City),
		"מיקוד: " + orDash(c.Billing.Postcode),
		fmt.Sprintf(`סה"כ רכישות: ₪%.2f`, spent),
		fmt.Sprintf("מספר הזמנות: %d", len(orders)),
	}
	if len(orders) > 0 {
		lines = append(lines, "\nהזמנות אחרונות:")
		for i, o := range orders {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("- הזמנה #%d | %s | סטטוס: %s | סכום: ₪%s",
				o.ID, dateOnly(o.DateCreated), statusHebrew(o.Status), o.Total))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) createCustomer(ctx context.Context, args Args) (string, error) {
	email := args.String("email")
	if err := d.validate.Var(email, "email"); err != nil {
		return "", apperr.Validation("לא מצאתי כתובת אימייל תקינה בבקשה. אנא ספק אימייל בפורמט user@domain.com")
	}

	body := map[string]any{
		"first_name": args.String("first_name"),
		"last_name":  args.String("last_name"),
		"email":      email,
		"username":   email,
	}
	billing := map[string]string{}
	for name, field := range map[string]string{"phone": "phone", "address": "address_1", "city": "city", "postcode": "postcode"} {
		if args.Has(name) {
			billing[field] = args.String(name)
		}
	}
	if len(billing) > 0 {
		body["billing"] = billing
	}

	c, err := woocommerce.Post[woocommerce.Customer](ctx, d.deps.Client, "customers", body)
	if err != nil {
		var re *apperr.RemoteError
		if errors.As(err, &re) && strings.Contains(strings.ToLower(re.Body), "already") {
			return "", apperr.Validation("כתובת האימייל %s כבר קיימת במערכת. אנא נסה כתובת אימייל אחרת.", email)
		}
		return "", err
	}

	msg := fmt.Sprintf("לקוח חדש נוצר בהצלחה!\nמזהה: %d\nשם: %s\nאימייל: %s",
		c.ID, fullName(c.FirstName, c.LastName), c.Email)
	if c.Billing.Phone != "" {
		msg += "\nטלפון: " + c.Billing.Phone
	}
	return msg, nil
}

func (d *Dispatcher) updateCustomer(ctx context.Context, args Args) (string, error) {
	label, value := args.String("field"), args.String("value")

	update := map[string]any{}
	labels := make([]string, 0, len(customerFields))
	for _, f := range customerFields {
		labels = append(labels, f.label)
		if f.label != label {
			continue
		}
		if f.billing {
			update["billing"] = map[string]string{f.field: value}
		} else {
			update[f.field] = value
		}
	}
	if len(update) == 0 {
		return "", apperr.Validation("שדה לא חוקי. אפשרויות: %s", strings.Join(labels, ", "))
	}
	if label == "אימייל" && d.validate.Var(value, "email") != nil {
		return "", apperr.Validation("כתובת האימייל %s אינה תקינה", value)
	}

	c, err := d.findCustomer(ctx, args.String("query"))
	if err != nil {
		return "", err
	}
	if _, err := woocommerce.Put[woocommerce.Customer](ctx, d.deps.Client, customerPath(c.ID), update); err != nil {
		return "", err
	}
	return "פרטי הלקוח עודכנו בהצלחה", nil
}

func (d *Dispatcher) searchCustomers(ctx context.Context, args Args) (string, error) {
	query := args.String("query")
	customers, err := woocommerce.Get[[]woocommerce.Customer](ctx, d.deps.Client, "customers", url.Values{"search": {query}})
	if err != nil {
		return "", err
	}
	if len(customers) == 0 {
		return fmt.Sprintf("לא נמצאו לקוחות התואמים לחיפוש '%s'", query), nil
	}
	lines := make([]string, 0, len(customers))
	for _, c := range customers {
		lines = append(lines, customerLine(c))
	}
	return fmt.Sprintf("תוצאות חיפוש עבור '%s':\n", query) + strings.Join(lines, "\n"), nil
}

func customerPath(id int) string {
	return "customers/" + strconv.Itoa(id)
}
