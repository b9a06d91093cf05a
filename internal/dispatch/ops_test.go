package dispatch_test

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/woocommerce"
)

func TestProductOperations(t *testing.T) {
	t.Parallel()

	t.Run("create with stock", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)

		reply := run(t, d, "create_product", "כובע קש | כובע לקיץ | 49.9 | 12")

		assert.Equal(t, "המוצר כובע קש נוצר בהצלחה", reply)
		list := run(t, d, "list_products", "")
		assert.Contains(t, list, "- כובע קש: ₪49.90 | במלאי (12 יחידות)")
		assert.Equal(t, 1, store.CountCalls("POST", "products"))
	})

	t.Run("edit several fields", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		id := store.AddProduct(woocommerce.Product{Name: "Mug", Price: "20", RegularPrice: "20"})

		reply := run(t, d, "edit_product", "Mug\nשם: Big Mug\nמחיר: 25\nמלאי: 4")

		assert.Equal(t, "המוצר Big Mug עודכן בהצלחה", reply)
		p, _ := store.Product(id)
		assert.Equal(t, "25.00", p.RegularPrice)
		require.NotNil(t, p.StockQuantity)
		assert.Equal(t, 4, *p.StockQuantity)
	})

	t.Run("edit without known fields", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		store.AddProduct(woocommerce.Product{Name: "Mug"})

		assert.Equal(t, "לא נמצאו שדות תקינים לעדכון", run(t, d, "edit_product", "Mug\nצבע: אדום"))
		assert.Empty(t, store.Calls())
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		id := store.AddProduct(woocommerce.Product{Name: "Mug"})

		assert.Equal(t, "המוצר Mug נמחק בהצלחה", run(t, d, "delete_product", "mug"))
		_, ok := store.Product(id)
		assert.False(t, ok)
	})

	t.Run("remove discount", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		id := store.AddProduct(woocommerce.Product{Name: "Mug", Price: "15", RegularPrice: "20", SalePrice: "15"})

		assert.Equal(t, "ההנחה הוסרה בהצלחה מהמוצר Mug", run(t, d, "remove_discount", "Mug"))
		p, _ := store.Product(id)
		assert.Empty(t, p.SalePrice)
		assert.Equal(t, "20", p.Price)
	})

	t.Run("details strip html", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		store.AddProduct(woocommerce.Product{Name: "Mug", Price: "15", SalePrice: "15", Description: "<p>ספל &amp; תחתית</p>"})

		reply := run(t, d, "get_product_details", "Mug")
		assert.Contains(t, reply, "תיאור: ספל & תחתית")
		assert.Contains(t, reply, "מחיר מבצע: ₪15")
	})

	t.Run("images list and delete", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		id := store.AddProduct(woocommerce.Product{Name: "Mug", Images: []woocommerce.Image{
			{ID: 1, Src: "https://shop.test/a.jpg"},
			{ID: 2, Src: "https://shop.test/b.jpg"},
		}})

		assert.Equal(t, "תמונות המוצר:\n1. https://shop.test/a.jpg\n2. https://shop.test/b.jpg", run(t, d, "list_product_images", "Mug"))
		assert.Equal(t, "מספר תמונה לא חוקי", run(t, d, "delete_product_image", "Mug | 3"))
		assert.Equal(t, "התמונה נמחקה בהצלחה", run(t, d, "delete_product_image", "Mug | 1"))

		p, _ := store.Product(id)
		require.Len(t, p.Images, 1)
		assert.Equal(t, 2, p.Images[0].ID)
	})

	t.Run("sales period", func(t *testing.T) {
		t.Parallel()
		d, store, _ := newDispatcher(t)
		store.AddOrder(woocommerce.Order{Status: "completed", Total: "120.00", LineItems: []woocommerce.LineItem{{Quantity: 3}}})

		reply := run(t, d, "get_sales", "חודש")
		assert.Contains(t, reply, "נתוני מכירות (month)")
		assert.Contains(t, reply, "סך המכירות: ₪120.00")
		assert.Contains(t, reply, "פריטים שנמכרו: 3")
		assert.Contains(t, run(t, d, "get_sales", "עשור"), "תקופה לא חוקית")
	})
}

func TestCouponOperations(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)

	assert.Equal(t, "אין קופונים פעילים בחנות", run(t, d, "list_coupons", ""))
	assert.Equal(t, "הקופון SUMMER נוצר בהצלחה!", run(t, d, "create_coupon", "SUMMER | percent | 15 | קיץ | 2030-08-31"))
	assert.Equal(t, "קופון עם הקוד SUMMER כבר קיים במערכת", run(t, d, "create_coupon", "SUMMER | percent | 10"))
	assert.Contains(t, run(t, d, "create_coupon", "X | bogus | 10"), "סוג ההנחה חייב להיות")
	assert.Equal(t, "תאריך התפוגה חייב להיות בפורמט YYYY-MM-DD", run(t, d, "create_coupon", "Y | fixed_cart | 10 | | 31/08/2030"))

	assert.Equal(t, "הקופונים בחנות:\n- SUMMER: 15.00% (בתוקף עד 2030-08-31)", run(t, d, "list_coupons", ""))

	assert.Equal(t, "הקופון summer עודכן בהצלחה", run(t, d, "edit_coupon", "summer | סכום | 20"))
	coupons := store.Coupons()
	require.Len(t, coupons, 1)
	assert.Equal(t, "20.00", coupons[0].Amount)

	assert.Contains(t, run(t, d, "edit_coupon", "SUMMER | צבע | אדום"), "שדה לא חוקי")
	assert.Equal(t, "לא נמצא קופון בשם 'WINTER'", run(t, d, "delete_coupon", "WINTER"))
	assert.Equal(t, "הקופון SUMMER נמחק בהצלחה", run(t, d, "delete_coupon", "SUMMER"))
	assert.Empty(t, store.Coupons())
}

func TestOrderOperations(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)

	id := store.AddOrder(woocommerce.Order{
		Status:      "processing",
		Total:       "150.00",
		DateCreated: "2024-03-10T12:00:00",
		CustomerID:  7,
		Billing:     woocommerce.Address{FirstName: "דנה", LastName: "כהן", Email: "dana@example.com", Phone: "050-1234567"},
		Shipping:    woocommerce.Address{Address1: "הרצל 1", City: "תל אביב", Postcode: "6100000"},
		LineItems:   []woocommerce.LineItem{{Name: "Mug", Quantity: 2, Price: 75}},
	},
		woocommerce.OrderNote{Note: "<b>נארז</b>"},
		woocommerce.OrderNote{Note: "תודה!", CustomerNote: true},
	)

	details := run(t, d, "get_order_details", "  "+strconv.Itoa(id))
	assert.Contains(t, details, "סטטוס: בטיפול")
	assert.Contains(t, details, "- Mug: 2 יח' × ₪75.00")
	assert.Contains(t, details, "הערות:\n- נארז")
	assert.NotContains(t, details, "תודה!")

	assert.Equal(t, "לא נמצא הזמנה בשם '999999'", run(t, d, "get_order_details", "999999"))
	assert.Equal(t, "מזהה הזמנה חייב להיות מספר", run(t, d, "get_order_details", "abc"))

	assert.Equal(t, "סטטוס ההזמנה #"+strconv.Itoa(id)+" עודכן ל-הושלם", run(t, d, "update_order_status", strconv.Itoa(id)+" הושלם"))
	o, _ := store.Order(id)
	assert.Equal(t, "completed", o.Status)
	assert.Contains(t, run(t, d, "update_order_status", strconv.Itoa(id)+" shipped"), "סטטוס לא חוקי: shipped")

	assert.Contains(t, run(t, d, "list_orders", "completed"), "#"+strconv.Itoa(id)+": הושלם | ₪150.00 | 2024-03-10 | דנה כהן")
	assert.Equal(t, "אין הזמנות במערכת", run(t, d, "list_orders", "cancelled"))

	assert.Contains(t, run(t, d, "search_orders", "לקוח:7"), "#"+strconv.Itoa(id))
	assert.Contains(t, run(t, d, "search_orders", "תאריך:2024-03-01 עד 2024-03-31"), "#"+strconv.Itoa(id))
	assert.Equal(t, "לא נמצאו הזמנות מתאימות", run(t, d, "search_orders", "date:2024-04-01..2024-04-30"))
	assert.Contains(t, run(t, d, "search_orders", "dana"), "#"+strconv.Itoa(id))
	assert.Contains(t, run(t, d, "search_orders", "תאריך:2024/03/01"), "תאריך לא תקין")
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)

	reply := run(t, d, "create_order", "דנה | כהן | dana@example.com | 0501234567 | הרצל 1 | תל אביב | 6100000 | 12:2,15:1 | flat_rate")
	assert.Contains(t, reply, "ההזמנה נוצרה בהצלחה! מספר הזמנה: #")

	var posted woocommerce.Order
	for _, c := range store.Calls() {
		if c.Method == "POST" && c.Path == "orders" {
			require.NoError(t, json.Unmarshal(c.Body, &posted))
		}
	}
	assert.Equal(t, "pending", posted.Status)
	assert.Equal(t, "IL", posted.Billing.Country)
	assert.Equal(t, []woocommerce.LineItem{{ProductID: 12, Quantity: 2}, {ProductID: 15, Quantity: 1}}, posted.LineItems)
	require.Len(t, posted.ShippingLines, 1)
	assert.Equal(t, "flat_rate", posted.ShippingLines[0].MethodID)

	assert.Equal(t, "כתובת האימייל not-an-email אינה תקינה",
		run(t, d, "create_order", "דנה | כהן | not-an-email | 050 | הרצל 1 | תל אביב | 6100000 | 12:2"))
	assert.Contains(t, run(t, d, "create_order", "דנה | כהן | dana@example.com | 050 | הרצל 1 | תל אביב | 6100000 | 12x2"),
		"פורמט מוצרים לא תקין")
	assert.Contains(t, run(t, d, "create_order", "דנה | כהן"), "נדרשים כל הפרטים")
}

func TestCategoryOperations(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)
	clothing := store.AddCategory(woocommerce.Category{Name: "ביגוד"})
	store.AddCategory(woocommerce.Category{Name: "מלא", Count: 3})
	productID := store.AddProduct(woocommerce.Product{Name: "Red Shirt"})

	assert.Contains(t, run(t, d, "create_category", "חולצות | חולצות קיץ | ביגוד"), "הקטגוריה חולצות נוצרה בהצלחה")
	assert.Contains(t, run(t, d, "list_categories", ""), "| קטגוריית אב: ביגוד")
	assert.Equal(t, "לא נמצאה קטגוריית אב בשם נעליים", run(t, d, "create_category", "מגפיים | | נעליים"))

	assert.Equal(t, "הקטגוריה ביגוד עודכנה בהצלחה", run(t, d, "update_category", "ביגוד | תיאור | כל הבגדים"))
	c, _ := store.Category(clothing)
	assert.Equal(t, "כל הבגדים", c.Description)

	assert.Equal(t, "המוצר Red Shirt שויך בהצלחה לקטגוריות: ביגוד, חולצות", run(t, d, "assign_product_to_categories", "Red Shirt | ביגוד, חולצות"))
	p, _ := store.Product(productID)
	assert.Len(t, p.Categories, 2)
	assert.Equal(t, "לא נמצאו הקטגוריות הבאות: אין כזו", run(t, d, "assign_product_to_categories", "Red Shirt | ביגוד, אין כזו"))

	assert.Equal(t, "לא ניתן למחוק את הקטגוריה מלא כי יש בה 3 מוצרים", run(t, d, "delete_category", "מלא"))
	assert.Equal(t, "לא נמצא קטגוריה בשם 'נעליים'", run(t, d, "delete_category", "נעליים"))
	assert.Equal(t, "הקטגוריה ביגוד נמחקה בהצלחה", run(t, d, "delete_category", "ביגוד"))
}

func TestCustomerOperations(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)

	assert.Equal(t, "אין לקוחות בחנות", run(t, d, "list_customers", ""))

	reply := run(t, d, "create_customer", "דנה | כהן | dana@example.com | 0501234567 | הרצל 1")
	assert.Contains(t, reply, "לקוח חדש נוצר בהצלחה!")
	assert.Contains(t, reply, "טלפון: 0501234567")
	assert.Equal(t, "כתובת האימייל dana@example.com כבר קיימת במערכת. אנא נסה כתובת אימייל אחרת.",
		run(t, d, "create_customer", "דנה | כהן | dana@example.com"))
	assert.Contains(t, run(t, d, "create_customer", "דנה | כהן | dana"), "לא מצאתי כתובת אימייל תקינה")

	assert.Equal(t, "פרטי הלקוח עודכנו בהצלחה", run(t, d, "update_customer", "dana@example.com | עיר | חיפה"))
	assert.Contains(t, run(t, d, "update_customer", "dana@example.com | מידה | L"), "שדה לא חוקי")

	customers := store.Customers()
	require.Len(t, customers, 1)
	id := customers[0].ID
	assert.Equal(t, "dana@example.com", customers[0].Username)
	assert.Equal(t, "חיפה", customers[0].Billing.City)
	assert.Equal(t, "0501234567", customers[0].Billing.Phone)

	store.AddOrder(woocommerce.Order{CustomerID: id, Status: "completed", Total: "100.00"})
	store.AddOrder(woocommerce.Order{CustomerID: id, Status: "cancelled", Total: "40.00"})

	details := run(t, d, "get_customer_details", strconv.Itoa(id))
	assert.Contains(t, details, "פרטי הלקוח דנה כהן:")
	assert.Contains(t, details, `סה"כ רכישות: ₪100.00`)
	assert.Contains(t, details, "מספר הזמנות: 2")
	assert.Contains(t, run(t, d, "get_customer_details", "dana@example.com"), "עיר: חיפה")
	assert.Equal(t, "לא נמצא לקוח התואם ל-'יוסי'", run(t, d, "get_customer_details", "יוסי"))
	assert.Equal(t, "לא נמצא לקוח התואם ל-'424242'", run(t, d, "get_customer_details", "424242"))

	assert.Contains(t, run(t, d, "search_customers", "כהן"), "- דנה כהן | אימייל: dana@example.com")
	assert.Equal(t, "לא נמצאו לקוחות התואמים לחיפוש 'לוי'", run(t, d, "search_customers", "לוי"))
}

func TestInventoryOperations(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)
	id := store.AddProduct(woocommerce.Product{Name: "Mug", ManageStock: true, StockQuantity: intPtr(10), StockStatus: "instock"})

	assert.Equal(t, "המלאי של Mug נוספו 5 יחידות (מלאי נוכחי: 15)", run(t, d, "update_product_stock", "Mug | add | 5"))
	assert.Equal(t, "המלאי של Mug הורדו 12 יחידות (מלאי נוכחי: 3)", run(t, d, "update_product_stock", "Mug | subtract | 12"))
	assert.Equal(t, "פעולה לא חוקית. אפשרויות: set, add, subtract", run(t, d, "update_product_stock", "Mug | double | 2"))

	assert.Equal(t, "מוצרים במלאי נמוך:\n- Mug: נשארו 3 יחידות (סף התראה: 5)", run(t, d, "get_low_stock_products", ""))
	assert.Equal(t, "לא נמצאו מוצרים במלאי נמוך", run(t, d, "get_low_stock_products", "2"))

	assert.Equal(t, "סף ההתראה למלאי נמוך עבור Mug נקבע ל-2 יחידות", run(t, d, "set_product_low_stock_threshold", "Mug | 2"))
	p, _ := store.Product(id)
	require.NotNil(t, p.LowStockAmount)
	assert.Equal(t, 2, *p.LowStockAmount)

	status := run(t, d, "get_product_stock_status", "Mug")
	assert.Contains(t, status, "כמות במלאי: 3")
	assert.Contains(t, status, "סף התראת מלאי נמוך: 2")

	store.AddVariation(id, woocommerce.Variation{Attributes: []woocommerce.VariationAttribute{{Name: "צבע", Option: "אדום"}}, StockQuantity: intPtr(1)})
	assert.Equal(t, "המלאי עודכן בהצלחה עבור 2 וריאציות",
		run(t, d, "manage_product_stock_by_attributes", "Mug\nצבע: אדום | 7\nצבע: כחול | 4"))

	vars := store.Variations(id)
	require.Len(t, vars, 2)
	assert.Equal(t, 7, *vars[0].StockQuantity)
	assert.Equal(t, "כחול", vars[1].Attributes[0].Option)
	assert.Equal(t, 4, *vars[1].StockQuantity)

	assert.Equal(t, "הכמות בשורה 'צבע: ירוק | הרבה' חייבת להיות מספר שלם",
		run(t, d, "manage_product_stock_by_attributes", "Mug\nצבע: ירוק | הרבה"))
}

func TestSurplusSegmentsMakeNoChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op   string
		raw  string
		want string
	}{
		{"update_product_stock", "Mug | set | 5 | 99", "נדרש: שם מוצר | פעולה (set/add/subtract) | כמות"},
		{"set_product_low_stock_threshold", "Mug | 3 | 7", "נדרש: שם מוצר | סף התראה"},
		{"delete_product_image", "Mug | 1 | 2", "נדרש: שם מוצר | מספר תמונה"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			t.Parallel()
			d, store, rec := newDispatcher(t)
			id := store.AddProduct(woocommerce.Product{Name: "Mug", ManageStock: true, StockQuantity: intPtr(10)})

			assert.Equal(t, tt.want, run(t, d, tt.op, tt.raw))

			assert.Empty(t, store.Calls())
			p, _ := store.Product(id)
			assert.Equal(t, 10, *p.StockQuantity)
			assert.Nil(t, p.LowStockAmount)
			require.Len(t, rec.all(), 1)
			assert.Equal(t, "validation", rec.all()[0].Outcome)
		})
	}
}

func TestStoreSettings(t *testing.T) {
	t.Parallel()
	d, _, _ := newDispatcher(t)

	reply := run(t, d, "get_store_settings", "")
	assert.Contains(t, reply, "מטבע: ILS")
	assert.Contains(t, reply, "- העברה בנקאית")
	assert.NotContains(t, reply, "מזומן במסירה")
	assert.Contains(t, reply, "- מע\"מ (IL): 17.0000%")
}
