package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

var couponFields = []struct {
	label string
	field string
}{
	{"קוד", "code"},
	{"סוג", "discount_type"},
	{"סכום", "amount"},
	{"תיאור", "description"},
	{"תפוגה", "date_expires"},
	{"מינימום", "minimum_amount"},
	{"מקסימום", "maximum_amount"},
}

func (d *Dispatcher) couponOps() []Operation {
	return []Operation{
		{
			Name:        "list_coupons",
			Description: "הצגת רשימת הקופונים בחנות",
			Schema:      Schema{Separator: SepNone},
			Run:         d.listCoupons,
		},
		{
			Name:        "create_coupon",
			Description: "יצירת קופון חדש. סוג הנחה: percent (אחוזים) או fixed_cart (סכום קבוע). תפוגה בפורמט YYYY-MM-DD",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "code", Label: "קוד קופון", Kind: KindString, Required: true},
					{Name: "type", Label: "סוג הנחה", Kind: KindString, Required: true},
					{Name: "amount", Label: "סכום הנחה", Kind: KindDecimal, Required: true},
					{Name: "description", Label: "תיאור", Kind: KindString},
					{Name: "expiry", Label: "תאריך תפוגה", Kind: KindString},
					{Name: "min", Label: "סכום מינימום", Kind: KindDecimal},
					{Name: "max", Label: "סכום מקסימום", Kind: KindDecimal},
				},
				Usage: "נדרש לפחות: קוד קופון | סוג הנחה | סכום הנחה",
			},
			Run: d.createCoupon,
		},
		{
			Name:        "edit_coupon",
			Description: "עריכת קופון קיים. שדות: קוד, סוג, סכום, תיאור, תפוגה, מינימום, מקסימום",
			Schema: Schema{
				Separator: SepPipe,
				Fields: []Field{
					{Name: "code", Label: "קוד קופון", Kind: KindString, Required: true},
					{Name: "field", Label: "שדה לעריכה", Kind: KindString, Required: true},
					{Name: "value", Label: "ערך חדש", Kind: KindText, Required: true},
				},
				Usage: "נדרש: קוד קופון | שדה לעריכה | ערך חדש",
			},
			Run: d.editCoupon,
		},
		{
			Name:        "delete_coupon",
			Description: "מחיקת קופון לפי הקוד שלו",
			Schema: Schema{
				Separator: SepNone,
				Fields:    []Field{{Name: "code", Label: "קוד קופון", Kind: KindString, Required: true}},
				Usage:     "נדרש קוד קופון",
			},
			Run: d.deleteCoupon,
		},
	}
}

func (d *Dispatcher) listCoupons(ctx context.Context, _ Args) (string, error) {
	coupons, err := woocommerce.Get[[]woocommerce.Coupon](ctx, d.deps.Client, "coupons", url.Values{"per_page": {"100"}})
	if err != nil {
		return "", err
	}
	if len(coupons) == 0 {
		return "אין קופונים פעילים בחנות", nil
	}
	lines := make([]string, 0, len(coupons))
	for _, c := range coupons {
		discount := "₪" + c.Amount
		if c.DiscountType == "percent" {
			discount = c.Amount + "%"
		}
		line := fmt.Sprintf("- %s: %s", c.Code, discount)
		if c.DateExpires != nil && *c.DateExpires != "" {
			line += fmt.Sprintf(" (בתוקף עד %s)", dateOnly(*c.DateExpires))
		}
		lines = append(lines, line)
	}
	return "הקופונים בחנות:\n" + strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) createCoupon(ctx context.Context, args Args) (string, error) {
	code := args.String("code")
	discountType := strings.ToLower(args.String("type"))
	if discountType != "percent" && discountType != "fixed_cart" {
		return "", apperr.Validation("סוג ההנחה חייב להיות 'percent' (אחוזים) או 'fixed_cart' (סכום קבוע)")
	}

	body := map[string]any{
		"code":               code,
		"discount_type":      discountType,
		"amount":             formatMoney(args.Decimal("amount")),
		"individual_use":     true,
		"exclude_sale_items": false,
	}
	if args.Has("description") {
		body["description"] = args.String("description")
	}
	if args.Has("expiry") {
		expiry, err := expiryDate(args.String("expiry"))
		if err != nil {
			return "", err
		}
		body["date_expires"] = expiry
	}
	if args.Has("min") {
		body["minimum_amount"] = formatMoney(args.Decimal("min"))
	}
	if args.Has("max") {
		body["maximum_amount"] = formatMoney(args.Decimal("max"))
	}

	if _, err := woocommerce.Post[woocommerce.Coupon](ctx, d.deps.Client, "coupons", body); err != nil {
		var re *apperr.RemoteError
		if errors.As(err, &re) && strings.Contains(strings.ToLower(re.Body), "already exists") {
			return "", apperr.Validation("קופון עם הקוד %s כבר קיים במערכת", code)
		}
		return "", err
	}
	return fmt.Sprintf("הקופון %s נוצר בהצלחה!", code), nil
}

func (d *Dispatcher) editCoupon(ctx context.Context, args Args) (string, error) {
	label, value := args.String("field"), args.String("value")

	var field string
	labels := make([]string, 0, len(couponFields))
	for _, f := range couponFields {
		labels = append(labels, f.label)
		if f.label == label {
			field = f.field
		}
	}
	if field == "" {
		return "", apperr.Validation("שדה לא חוקי. אפשרויות: %s", strings.Join(labels, ", "))
	}

	update := map[string]any{}
	switch field {
	case "date_expires":
		expiry, err := expiryDate(value)
		if err != nil {
			return "", err
		}
		update[field] = expiry
	case "amount", "minimum_amount", "maximum_amount":
		n, err := parseDecimal(value)
		if err != nil {
			return "", apperr.Validation("%s חייב להיות מספר", label)
		}
		update[field] = formatMoney(n)
	case "discount_type":
		t := strings.ToLower(value)
		if t != "percent" && t != "fixed_cart" {
			return "", apperr.Validation("סוג ההנחה חייב להיות 'percent' (אחוזים) או 'fixed_cart' (סכום קבוע)")
		}
		update[field] = t
	default:
		update[field] = value
	}

	c, err := d.findCoupon(ctx, args.String("code"))
	if err != nil {
		return "", err
	}
	if _, err := woocommerce.Put[woocommerce.Coupon](ctx, d.deps.Client, couponPath(c.ID), update); err != nil {
		return "", err
	}
	return fmt.Sprintf("הקופון %s עודכן בהצלחה", args.String("code")), nil
}

func (d *Dispatcher) deleteCoupon(ctx context.Context, args Args) (string, error) {
	code := args.String("code")
	c, err := d.findCoupon(ctx, code)
	if err != nil {
		return "", err
	}
	if _, err := woocommerce.Delete[woocommerce.Coupon](ctx, d.deps.Client, couponPath(c.ID), url.Values{"force": {"true"}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("הקופון %s נמחק בהצלחה", code), nil
}

// findCoupon looks a coupon up by its exact code, ignoring case.
func (d *Dispatcher) findCoupon(ctx context.Context, code string) (woocommerce.Coupon, error) {
	coupons, err := woocommerce.Get[[]woocommerce.Coupon](ctx, d.deps.Client, "coupons", url.Values{"code": {code}})
	if err != nil {
		return woocommerce.Coupon{}, err
	}
	for _, c := range coupons {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return woocommerce.Coupon{}, apperr.NotFound("קופון", code)
}

func expiryDate(value string) (string, error) {
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return "", apperr.Validation("תאריך התפוגה חייב להיות בפורמט YYYY-MM-DD")
	}
	return value + "T23:59:59", nil
}

func couponPath(id int) string {
	return "coupons/" + strconv.Itoa(id)
}
