// Package wootest provides an in-memory WooCommerce server for tests. It
// implements the subset of wc/v3 and wp/v2/media the bot uses and records
// every request it receives.
package wootest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/resilience"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

// Call is a recorded request.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Store is a fake WooCommerce store.
type Store struct {
	mu sync.Mutex

	products   map[int]*woocommerce.Product
	variations map[int][]woocommerce.Variation
	coupons    map[int]*woocommerce.Coupon
	orders     map[int]*woocommerce.Order
	notes      map[int][]woocommerce.OrderNote
	categories map[int]*woocommerce.Category
	customers  map[int]*woocommerce.Customer
	media      map[int]string
	nextID     int

	failures map[string]int
	calls    []Call

	server *httptest.Server
}

// New starts a fake store that is closed when t finishes.
func New(t testing.TB) *Store {
	t.Helper()
	s := &Store{
		products:   map[int]*woocommerce.Product{},
		variations: map[int][]woocommerce.Variation{},
		coupons:    map[int]*woocommerce.Coupon{},
		orders:     map[int]*woocommerce.Order{},
		notes:      map[int][]woocommerce.OrderNote{},
		categories: map[int]*woocommerce.Category{},
		customers:  map[int]*woocommerce.Customer{},
		media:      map[int]string{},
		failures:   map[string]int{},
		nextID:     1000,
	}
	s.server = httptest.NewServer(s.routes())
	t.Cleanup(s.server.Close)
	return s
}

// URL is the store base URL.
func (s *Store) URL() string {
	return s.server.URL
}

// Client returns a store client pointed at the fake. Retries never sleep.
func (s *Store) Client(t testing.TB) *woocommerce.Client {
	t.Helper()
	cfg := config.StoreConfig{
		BaseURL:        s.URL(),
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		WPUser:         "admin",
		WPAppPassword:  "app-pass",
		Timeout:        5 * time.Second,
		ConnectTimeout: time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}
	retrier := resilience.NewRetrier(cfg.MaxRetries, cfg.RetryBaseDelay)
	retrier.Wait = func(_ context.Context, _ time.Duration) error { return nil }
	c, err := woocommerce.NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), woocommerce.WithRetrier(retrier))
	if err != nil {
		t.Fatalf("failed to create store client: %v", err)
	}
	return c
}

// FailNext makes the next n requests for route answer 500. Route is the
// method and the path below the API root, e.g. "PUT products/12" or "POST media".
func (s *Store) FailNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = n
}

// Calls returns the recorded requests.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CountCalls counts requests with the given method whose API path starts
// with prefix. An empty method matches any.
func (s *Store) CountCalls(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if (method == "" || c.Method == method) && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// AddProduct stores p, assigning an id when it has none, and returns the id.
func (s *Store) AddProduct(p woocommerce.Product) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	for _, img := range p.Images {
		if img.ID != 0 {
			s.media[img.ID] = img.Src
		}
	}
	s.products[p.ID] = &p
	return p.ID
}

// Product returns a copy of the product with id.
func (s *Store) Product(id int) (woocommerce.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return woocommerce.Product{}, false
	}
	return *p, true
}

// AddCoupon stores c and returns its id.
func (s *Store) AddCoupon(c woocommerce.Coupon) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.coupons[c.ID] = &c
	return c.ID
}

// AddOrder stores o with optional notes and returns its id.
func (s *Store) AddOrder(o woocommerce.Order, notes ...woocommerce.OrderNote) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.id()
	}
	s.orders[o.ID] = &o
	s.notes[o.ID] = notes
	return o.ID
}

// Order returns a copy of the order with id.
func (s *Store) Order(id int) (woocommerce.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return woocommerce.Order{}, false
	}
	return *o, true
}

// AddCategory stores c and returns its id.
func (s *Store) AddCategory(c woocommerce.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.categories[c.ID] = &c
	return c.ID
}

// AddCustomer stores c and returns its id.
func (s *Store) AddCustomer(c woocommerce.Customer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.customers[c.ID] = &c
	return c.ID
}

func (s *Store) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/wp-json/wp/v2/media", s.uploadMedia)

	r.Route("/wp-json/wc/v3", func(r chi.Router) {
		r.Get("/products", s.listProducts)
		r.Post("/products", s.createProduct)
		r.Get("/products/categories", s.listCategories)
		r.Post("/products/categories", s.createCategory)
		r.Put("/products/categories/{id}", s.updateCategory)
		r.Delete("/products/categories/{id}", s.deleteCategory)
		r.Get("/products/{id}", s.getProduct)
		r.Put("/products/{id}", s.updateProduct)
		r.Delete("/products/{id}", s.deleteProduct)
		r.Get("/products/{id}/variations", s.listVariations)
		r.Post("/products/{id}/variations", s.createVariation)
		r.Put("/products/{id}/variations/{vid}", s.updateVariation)

		r.Get("/coupons", s.listCoupons)
		r.Post("/coupons", s.createCoupon)
		r.Put("/coupons/{id}", s.updateCoupon)
		r.Delete("/coupons/{id}", s.deleteCoupon)

		r.Get("/orders", s.listOrders)
		r.Post("/orders", s.createOrder)
		r.Get("/orders/{id}", s.getOrder)
		r.Put("/orders/{id}", s.updateOrder)
		r.Get("/orders/{id}/notes", s.orderNotes)

		r.Get("/customers", s.listCustomers)
		r.Post("/customers", s.createCustomer)
		r.Get("/customers/{id}", s.getCustomer)
		r.Put("/customers/{id}", s.updateCustomer)

		r.Get("/reports/sales", s.salesReport)
		r.Get("/settings/general/woocommerce_currency", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, woocommerce.Setting{ID: "woocommerce_currency", Label: "Currency", Value: "ILS"})
		})
		r.Get("/payment_gateways", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []woocommerce.PaymentGateway{
				{ID: "bacs", Title: "העברה בנקאית", Enabled: true},
				{ID: "cod", Title: "מזומן במסירה", Enabled: false},
			})
		})
		r.Get("/taxes", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []woocommerce.TaxRate{{ID: 1, Country: "IL", Rate: "17.0000", Name: "מע\"מ"}})
		})
	})
	return r
}

// record logs the call and answers with an injected failure when one is due.
func (s *Store) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/wp-json/wc/v3/"), "/wp-json/wp/v2/")
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: path, Query: r.URL.RawQuery, Body: body})
		route := r.Method + " " + path
		fail := s.failures[route]
		if fail > 0 {
			s.failures[route] = fail - 1
		}
		s.mu.Unlock()

		if fail > 0 {
			writeError(w, http.StatusInternalServerError, "internal_error", "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"code": code, "message": message, "data": map[string]int{"status": status}})
}

func pathID(r *http.Request, key string) int {
	id, _ := strconv.Atoi(chi.URLParam(r, key))
	return id
}

func perPage(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n > 0 {
		return n
	}
	return def
}

func decode(r *http.Request) map[string]json.RawMessage {
	fields := map[string]json.RawMessage{}
	_ = json.NewDecoder(r.Body).Decode(&fields)
	return fields
}

func sortedIDs[T any](m map[int]T) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) uploadMedia(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "admin" || pass != "app-pass" {
		writeError(w, http.StatusUnauthorized, "rest_cannot_create", "Sorry, you are not allowed to create posts as this user.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "rest_upload_no_data", "No data supplied.")
		return
	}
	_ = file.Close()

	s.mu.Lock()
	id := s.id()
	src := fmt.Sprintf("%s/wp-content/uploads/%s", s.server.URL, header.Filename)
	s.media[id] = src
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, woocommerce.Media{ID: id, SourceURL: src})
}

func (s *Store) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(r.URL.Query().Get("search"))
	inStock := r.URL.Query().Get("stock_status") == "instock"
	out := []woocommerce.Product{}
	for _, id := range sortedIDs(s.products) {
		p := s.products[id]
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if inStock && p.StockStatus == "outofstock" {
			continue
		}
		out = append(out, *p)
		if len(out) == perPage(r, 10) {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createProduct(w http.ResponseWriter, r *http.Request) {
	var p woocommerce.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" {
		writeError(w, http.StatusBadRequest, "rest_invalid_param", "Invalid parameter(s): name")
		return
	}
	s.mu.Lock()
	p.ID = s.id()
	p.Price = p.RegularPrice
	s.products[p.ID] = &p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Store) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Product(pathID(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_product_invalid_id", "Invalid ID.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Store) updateProduct(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_product_invalid_id", "Invalid ID.")
		return
	}

	for key, raw := range fields {
		switch key {
		case "name":
			_ = json.Unmarshal(raw, &p.Name)
		case "description":
			_ = json.Unmarshal(raw, &p.Description)
		case "regular_price":
			_ = json.Unmarshal(raw, &p.RegularPrice)
			if p.SalePrice == "" {
				p.Price = p.RegularPrice
			}
		case "sale_price":
			_ = json.Unmarshal(raw, &p.SalePrice)
			if p.SalePrice == "" {
				p.Price = p.RegularPrice
			} else {
				p.Price = p.SalePrice
			}
		case "manage_stock":
			_ = json.Unmarshal(raw, &p.ManageStock)
		case "stock_quantity":
			_ = json.Unmarshal(raw, &p.StockQuantity)
		case "low_stock_amount":
			_ = json.Unmarshal(raw, &p.LowStockAmount)
		case "categories":
			_ = json.Unmarshal(raw, &p.Categories)
		case "images":
			var refs []woocommerce.ImageRef
			_ = json.Unmarshal(raw, &refs)
			images := []woocommerce.Image{}
			for _, ref := range refs {
				src, known := s.media[ref.ID]
				if !known {
					writeError(w, http.StatusBadRequest, "woocommerce_product_invalid_image_id", fmt.Sprintf("#%d is an invalid image ID.", ref.ID))
					return
				}
				images = append(images, woocommerce.Image{ID: ref.ID, Src: src})
			}
			p.Images = images
		}
	}
	writeJSON(w, http.StatusOK, *p)
}

func (s *Store) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	p, ok := s.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_product_invalid_id", "Invalid ID.")
		return
	}
	delete(s.products, id)
	writeJSON(w, http.StatusOK, *p)
}

func (s *Store) listVariations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]woocommerce.Variation{}, s.variations[pathID(r, "id")]...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createVariation(w http.ResponseWriter, r *http.Request) {
	var v woocommerce.Variation
	_ = json.NewDecoder(r.Body).Decode(&v)
	s.mu.Lock()
	v.ID = s.id()
	pid := pathID(r, "id")
	s.variations[pid] = append(s.variations[pid], v)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, v)
}

func (s *Store) updateVariation(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, vid := pathID(r, "id"), pathID(r, "vid")
	for i := range s.variations[pid] {
		v := &s.variations[pid][i]
		if v.ID != vid {
			continue
		}
		if raw, ok := fields["stock_quantity"]; ok {
			_ = json.Unmarshal(raw, &v.StockQuantity)
		}
		if raw, ok := fields["manage_stock"]; ok {
			_ = json.Unmarshal(raw, &v.ManageStock)
		}
		writeJSON(w, http.StatusOK, *v)
		return
	}
	writeError(w, http.StatusNotFound, "woocommerce_rest_product_variation_invalid_id", "Invalid ID.")
}

// Variations returns the variations of product id.
func (s *Store) Variations(id int) []woocommerce.Variation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]woocommerce.Variation(nil), s.variations[id]...)
}

// AddVariation stores v under product id.
func (s *Store) AddVariation(productID int, v woocommerce.Variation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.id()
	}
	s.variations[productID] = append(s.variations[productID], v)
	return v.ID
}

func (s *Store) listCoupons(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := r.URL.Query().Get("code")
	out := []woocommerce.Coupon{}
	for _, id := range sortedIDs(s.coupons) {
		c := s.coupons[id]
		if code != "" && !strings.EqualFold(c.Code, code) {
			continue
		}
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createCoupon(w http.ResponseWriter, r *http.Request) {
	var c woocommerce.Coupon
	_ = json.NewDecoder(r.Body).Decode(&c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.coupons {
		if strings.EqualFold(existing.Code, c.Code) {
			writeError(w, http.StatusBadRequest, "woocommerce_rest_coupon_code_already_exists", "The coupon code already exists")
			return
		}
	}
	c.ID = s.id()
	s.coupons[c.ID] = &c
	writeJSON(w, http.StatusCreated, c)
}

func (s *Store) updateCoupon(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_shop_coupon_invalid_id", "Invalid ID.")
		return
	}
	for key, raw := range fields {
		switch key {
		case "code":
			_ = json.Unmarshal(raw, &c.Code)
		case "amount":
			_ = json.Unmarshal(raw, &c.Amount)
		case "discount_type":
			_ = json.Unmarshal(raw, &c.DiscountType)
		case "description":
			_ = json.Unmarshal(raw, &c.Description)
		case "date_expires":
			_ = json.Unmarshal(raw, &c.DateExpires)
		case "minimum_amount":
			_ = json.Unmarshal(raw, &c.MinimumAmount)
		case "maximum_amount":
			_ = json.Unmarshal(raw, &c.MaximumAmount)
		}
	}
	writeJSON(w, http.StatusOK, *c)
}

func (s *Store) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	c, ok := s.coupons[id]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_shop_coupon_invalid_id", "Invalid ID.")
		return
	}
	delete(s.coupons, id)
	writeJSON(w, http.StatusOK, *c)
}

// Coupons returns the stored coupons ordered by id.
func (s *Store) Coupons() []woocommerce.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []woocommerce.Coupon{}
	for _, id := range sortedIDs(s.coupons) {
		out = append(out, *s.coupons[id])
	}
	return out
}

func (s *Store) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := r.URL.Query()
	out := []woocommerce.Order{}
	for _, id := range sortedIDs(s.orders) {
		o := s.orders[id]
		if st := q.Get("status"); st != "" && o.Status != st {
			continue
		}
		if cust := q.Get("customer"); cust != "" && strconv.Itoa(o.CustomerID) != cust {
			continue
		}
		if after := q.Get("after"); after != "" && o.DateCreated < after {
			continue
		}
		if before := q.Get("before"); before != "" && o.DateCreated > before {
			continue
		}
		if search := q.Get("search"); search != "" &&
			!strings.Contains(strings.ToLower(o.Billing.FirstName+" "+o.Billing.LastName+" "+o.Billing.Email), strings.ToLower(search)) {
			continue
		}
		out = append(out, *o)
		if len(out) == perPage(r, 10) {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createOrder(w http.ResponseWriter, r *http.Request) {
	var o woocommerce.Order
	_ = json.NewDecoder(r.Body).Decode(&o)
	s.mu.Lock()
	o.ID = s.id()
	o.DateCreated = "2024-05-01T10:00:00"
	s.orders[o.ID] = &o
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, o)
}

func (s *Store) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := s.Order(pathID(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_shop_order_invalid_id", "Invalid ID.")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Store) updateOrder(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_shop_order_invalid_id", "Invalid ID.")
		return
	}
	if raw, ok := fields["status"]; ok {
		_ = json.Unmarshal(raw, &o.Status)
	}
	writeJSON(w, http.StatusOK, *o)
}

func (s *Store) orderNotes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]woocommerce.OrderNote{}, s.notes[pathID(r, "id")]...))
}

func (s *Store) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []woocommerce.Category{}
	for _, id := range sortedIDs(s.categories) {
		out = append(out, *s.categories[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createCategory(w http.ResponseWriter, r *http.Request) {
	var c woocommerce.Category
	_ = json.NewDecoder(r.Body).Decode(&c)
	s.mu.Lock()
	c.ID = s.id()
	s.categories[c.ID] = &c
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, c)
}

func (s *Store) updateCategory(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_term_invalid", "Resource does not exist.")
		return
	}
	if raw, ok := fields["name"]; ok {
		_ = json.Unmarshal(raw, &c.Name)
	}
	if raw, ok := fields["description"]; ok {
		_ = json.Unmarshal(raw, &c.Description)
	}
	if raw, ok := fields["parent"]; ok {
		_ = json.Unmarshal(raw, &c.Parent)
	}
	writeJSON(w, http.StatusOK, *c)
}

func (s *Store) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	c, ok := s.categories[id]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_term_invalid", "Resource does not exist.")
		return
	}
	delete(s.categories, id)
	writeJSON(w, http.StatusOK, *c)
}

// Category returns a copy of the category with id.
func (s *Store) Category(id int) (woocommerce.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return woocommerce.Category{}, false
	}
	return *c, true
}

func (s *Store) listCustomers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := r.URL.Query()
	out := []woocommerce.Customer{}
	for _, id := range sortedIDs(s.customers) {
		c := s.customers[id]
		if email := q.Get("email"); email != "" && !strings.EqualFold(c.Email, email) {
			continue
		}
		if search := strings.ToLower(q.Get("search")); search != "" &&
			!strings.Contains(strings.ToLower(c.FirstName+" "+c.LastName+" "+c.Email), search) {
			continue
		}
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c woocommerce.Customer
	_ = json.NewDecoder(r.Body).Decode(&c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			writeError(w, http.StatusBadRequest, "registration-error-email-exists", "An account is already registered with your email address.")
			return
		}
	}
	c.ID = s.id()
	s.customers[c.ID] = &c
	writeJSON(w, http.StatusCreated, c)
}

func (s *Store) getCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_invalid_id", "Invalid resource ID.")
		return
	}
	writeJSON(w, http.StatusOK, *c)
}

func (s *Store) updateCustomer(w http.ResponseWriter, r *http.Request) {
	fields := decode(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "woocommerce_rest_invalid_id", "Invalid resource ID.")
		return
	}
	for key, raw := range fields {
		switch key {
		case "first_name":
			_ = json.Unmarshal(raw, &c.FirstName)
		case "last_name":
			_ = json.Unmarshal(raw, &c.LastName)
		case "email":
			_ = json.Unmarshal(raw, &c.Email)
		case "billing":
			// Partial billing updates merge into the stored address.
			_ = json.Unmarshal(raw, &c.Billing)
		}
	}
	writeJSON(w, http.StatusOK, *c)
}

// Customer returns a copy of the customer with id.
func (s *Store) Customer(id int) (woocommerce.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return woocommerce.Customer{}, false
	}
	return *c, true
}

// Customers returns the stored customers ordered by id.
func (s *Store) Customers() []woocommerce.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []woocommerce.Customer{}
	for _, id := range sortedIDs(s.customers) {
		out = append(out, *s.customers[id])
	}
	return out
}

func (s *Store) salesReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	items := 0
	for _, o := range s.orders {
		if o.Status != "completed" {
			continue
		}
		v, _ := strconv.ParseFloat(o.Total, 64)
		total += v
		for _, li := range o.LineItems {
			items += li.Quantity
		}
	}
	amount := strconv.FormatFloat(total, 'f', 2, 64)
	writeJSON(w, http.StatusOK, []woocommerce.SalesReport{{
		TotalSales:  amount,
		NetSales:    amount,
		TotalOrders: len(s.orders),
		TotalItems:  items,
	}})
}
