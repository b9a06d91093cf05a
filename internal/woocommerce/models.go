package woocommerce

// Product is a WooCommerce product as returned by wc/v3. Money values are
// decimal strings, as the API sends them.
type Product struct {
	ID                int           `json:"id"`
	Name              string        `json:"name"`
	Type              string        `json:"type,omitempty"`
	Status            string        `json:"status,omitempty"`
	Permalink         string        `json:"permalink,omitempty"`
	Description       string        `json:"description"`
	ShortDescription  string        `json:"short_description,omitempty"`
	Price             string        `json:"price"`
	RegularPrice      string        `json:"regular_price"`
	SalePrice         string        `json:"sale_price"`
	ManageStock       bool          `json:"manage_stock"`
	StockQuantity     *int          `json:"stock_quantity"`
	StockStatus       string        `json:"stock_status"`
	LowStockAmount    *int          `json:"low_stock_amount"`
	Backorders        string        `json:"backorders,omitempty"`
	BackordersAllowed bool          `json:"backorders_allowed"`
	Images            []Image       `json:"images"`
	Categories        []CategoryRef `json:"categories"`
	Attributes        []Attribute   `json:"attributes,omitempty"`
	Variations        []int         `json:"variations,omitempty"`
}

// Image is a product image. Only ID is needed when referencing an existing
// media item in an update.
type Image struct {
	ID   int    `json:"id,omitempty"`
	Src  string `json:"src,omitempty"`
	Name string `json:"name,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

// ImageRef references an uploaded media item by id.
type ImageRef struct {
	ID int `json:"id"`
}

// CategoryRef links a product to a category.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// Attribute is a product attribute with its options.
type Attribute struct {
	ID        int      `json:"id,omitempty"`
	Name      string   `json:"name"`
	Options   []string `json:"options,omitempty"`
	Variation bool     `json:"variation,omitempty"`
}

// Variation is a product variation with its own stock.
type Variation struct {
	ID            int                  `json:"id"`
	Attributes    []VariationAttribute `json:"attributes"`
	ManageStock   bool                 `json:"manage_stock"`
	StockQuantity *int                 `json:"stock_quantity"`
	StockStatus   string               `json:"stock_status,omitempty"`
}

// VariationAttribute selects one option of an attribute.
type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Coupon is a discount code.
type Coupon struct {
	ID            int     `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	DateExpires   *string `json:"date_expires"`
	MinimumAmount string  `json:"minimum_amount"`
	MaximumAmount string  `json:"maximum_amount"`
	UsageCount    int     `json:"usage_count"`
}

// Address is a billing or shipping address.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Order is a customer order.
type Order struct {
	ID                 int            `json:"id"`
	Status             string         `json:"status"`
	Currency           string         `json:"currency,omitempty"`
	Total              string         `json:"total"`
	DateCreated        string         `json:"date_created"`
	CustomerID         int            `json:"customer_id"`
	CustomerNote       string         `json:"customer_note,omitempty"`
	PaymentMethodTitle string         `json:"payment_method_title,omitempty"`
	Billing            Address        `json:"billing"`
	Shipping           Address        `json:"shipping"`
	LineItems          []LineItem     `json:"line_items"`
	ShippingLines      []ShippingLine `json:"shipping_lines,omitempty"`
}

// LineItem is one product line of an order.
type LineItem struct {
	ID        int     `json:"id,omitempty"`
	ProductID int     `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
	Total     string  `json:"total,omitempty"`
}

// ShippingLine is a shipping charge on an order.
type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

// OrderNote is a note attached to an order.
type OrderNote struct {
	ID           int    `json:"id"`
	Note         string `json:"note"`
	DateCreated  string `json:"date_created"`
	CustomerNote bool   `json:"customer_note"`
}

// Category is a product category.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Parent      int    `json:"parent"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Customer is a registered store customer.
type Customer struct {
	ID          int     `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Username    string  `json:"username,omitempty"`
	DateCreated string  `json:"date_created,omitempty"`
	Billing     Address `json:"billing"`
	Shipping    Address `json:"shipping"`
}

// SalesReport is one row of reports/sales.
type SalesReport struct {
	TotalSales  string `json:"total_sales"`
	NetSales    string `json:"net_sales"`
	TotalOrders int    `json:"total_orders"`
	TotalItems  int    `json:"total_items"`
}

// Setting is a single store setting.
type Setting struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// PaymentGateway is a configured payment method.
type PaymentGateway struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// TaxRate is a configured tax rate.
type TaxRate struct {
	ID      int    `json:"id"`
	Country string `json:"country"`
	Rate    string `json:"rate"`
	Name    string `json:"name"`
	Class   string `json:"class"`
}

// Media is an uploaded WordPress media item.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}
