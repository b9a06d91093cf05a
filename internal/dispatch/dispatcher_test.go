package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/dispatch"
	"github.com/edgard/wooadminbot/internal/media"
	"github.com/edgard/wooadminbot/internal/resolver"
	"github.com/edgard/wooadminbot/internal/woocommerce"
	"github.com/edgard/wooadminbot/internal/woocommerce/wootest"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []database.OperationLog
	err     error
}

func (r *memRecorder) SaveOperation(_ context.Context, entry *database.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return r.err
}

func (r *memRecorder) all() []database.OperationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]database.OperationLog(nil), r.entries...)
}

func intPtr(n int) *int { return &n }

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *wootest.Store, *memRecorder) {
	t.Helper()
	store := wootest.New(t)
	client := store.Client(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &memRecorder{}

	d := dispatch.New(dispatch.Deps{
		Client:   client,
		Resolver: resolver.New(client, log),
		Media:    media.NewPipeline(client, log),
		Messages: config.DefaultMessages,
		Recorder: rec,
		Logger:   log,
	})
	return d, store, rec
}

func run(t *testing.T, d *dispatch.Dispatcher, op, raw string) string {
	t.Helper()
	return d.Dispatch(context.Background(), dispatch.Request{ConversationID: "42", Operation: op, RawArgs: raw})
}

func TestUpdatePricePercent(t *testing.T) {
	t.Parallel()
	d, store, rec := newDispatcher(t)
	id := store.AddProduct(woocommerce.Product{Name: "Red Shirt", Price: "100", RegularPrice: "100"})

	reply := run(t, d, "update_price", "Red Shirt -10%")

	assert.Contains(t, reply, "90.00")
	assert.Contains(t, reply, "Red Shirt")
	p, _ := store.Product(id)
	assert.Equal(t, "90.00", p.RegularPrice)

	var put wootest.Call
	for _, c := range store.Calls() {
		if c.Method == "PUT" {
			put = c
		}
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(put.Body, &body))
	assert.Equal(t, map[string]any{"regular_price": "90.00"}, body)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "update_price", entries[0].Operation)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.Equal(t, "42", entries[0].ConversationID)
	assert.NotEmpty(t, entries[0].RequestID)
}

func TestUpdatePriceMissingPriceMakesNoRemoteCall(t *testing.T) {
	t.Parallel()
	d, store, rec := newDispatcher(t)
	store.AddProduct(woocommerce.Product{Name: "Red Shirt", Price: "100"})

	reply := run(t, d, "update_price", "Red Shirt")

	assert.Equal(t, "נדרש שם מוצר ומחיר חדש או אחוז שינוי", reply)
	assert.Empty(t, store.Calls())
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "validation", rec.all()[0].Outcome)
}

func TestUpdatePriceNegativeResult(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)
	store.AddProduct(woocommerce.Product{Name: "Red Shirt", Price: "100"})

	reply := run(t, d, "update_price", "Red Shirt -150%")

	assert.Equal(t, "המחיר החדש חייב להיות חיובי", reply)
	assert.Zero(t, store.CountCalls("PUT", "products"))
}

func TestDispatchUnknownOperation(t *testing.T) {
	t.Parallel()
	d, store, rec := newDispatcher(t)

	reply := run(t, d, "launch_rockets", "")

	assert.Equal(t, "אני לא מכיר את הפעולה 'launch_rockets'.", reply)
	assert.Empty(t, store.Calls())
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "validation", rec.all()[0].Outcome)
}

func TestDispatchRecoversPanic(t *testing.T) {
	t.Parallel()
	d, _, rec := newDispatcher(t)
	d.Register(dispatch.Operation{
		Name:   "explode",
		Schema: dispatch.Schema{Separator: dispatch.SepNone},
		Run: func(context.Context, dispatch.Args) (string, error) {
			panic("kaboom")
		},
	})

	reply := run(t, d, "explode", "")

	assert.Equal(t, config.DefaultMessages.ErrorGeneralMsg, reply)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "internal", rec.all()[0].Outcome)
	assert.Contains(t, rec.all()[0].Error, "kaboom")
}

func TestDispatchRecorderFailureKeepsReply(t *testing.T) {
	t.Parallel()
	d, store, rec := newDispatcher(t)
	rec.err = errors.New("disk full")
	store.AddProduct(woocommerce.Product{Name: "Mug", Price: "20"})

	reply := run(t, d, "list_products", "")

	assert.Contains(t, reply, "- Mug: ₪20")
}

func TestDispatchProductNotFound(t *testing.T) {
	t.Parallel()
	d, store, _ := newDispatcher(t)
	store.AddProduct(woocommerce.Product{Name: "Mug", Price: "20"})

	reply := run(t, d, "get_product_details", "NoSuchProduct")

	assert.Equal(t, "לא נמצא מוצר בשם 'NoSuchProduct'", reply)
}

func TestDispatchRemoteStatus(t *testing.T) {
	t.Parallel()
	d, store, rec := newDispatcher(t)
	store.FailNext("GET products", 1)

	reply := run(t, d, "list_products", "")

	assert.Equal(t, "השרת החזיר שגיאה (500): injected failure", reply)
	assert.Equal(t, 1, store.CountCalls("GET", "products"), "status errors are not retried")
	assert.Equal(t, "remote", rec.all()[0].Outcome)
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	d, _, _ := newDispatcher(t)

	tools := d.Catalog()
	assert.Len(t, tools, 35)

	seen := map[string]bool{}
	for _, tool := range tools {
		assert.False(t, seen[tool.Name], "duplicate %s", tool.Name)
		seen[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.Grammar, tool.Name)
	}
	assert.Equal(t, "list_products", tools[0].Name)

	help := d.HelpText()
	assert.True(t, strings.HasPrefix(help, config.DefaultMessages.HelpHeader))
	assert.Contains(t, help, "פורמט: שם מוצר | תיאור | מחיר [| כמות במלאי]")
}

func TestLowStock(t *testing.T) {
	t.Parallel()
	store := wootest.New(t)
	client := store.Client(t)

	store.AddProduct(woocommerce.Product{Name: "Low", ManageStock: true, StockQuantity: intPtr(2)})
	store.AddProduct(woocommerce.Product{Name: "Plenty", ManageStock: true, StockQuantity: intPtr(50)})
	store.AddProduct(woocommerce.Product{Name: "Custom", ManageStock: true, StockQuantity: intPtr(8), LowStockAmount: intPtr(10)})
	store.AddProduct(woocommerce.Product{Name: "Unmanaged"})

	low, err := dispatch.LowStock(context.Background(), client, dispatch.DefaultLowStockThreshold)
	require.NoError(t, err)

	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Low", "Custom"}, names)

	report := dispatch.FormatLowStock(low, dispatch.DefaultLowStockThreshold)
	assert.Contains(t, report, "- Low: נשארו 2 יחידות (סף התראה: 5)")
	assert.Contains(t, report, "- Custom: נשארו 8 יחידות (סף התראה: 10)")
	assert.Empty(t, dispatch.FormatLowStock(nil, 5))
}
