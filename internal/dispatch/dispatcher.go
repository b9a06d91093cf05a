// Package dispatch maps classified operations onto typed store handlers.
// Every operation declares a Schema, raw arguments go through the single
// Parse function, and every failure leaves Dispatch as a rendered Hebrew
// reply.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/metrics"
	"github.com/edgard/wooadminbot/internal/resolver"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

const auditTimeout = 5 * time.Second

// Request is one classified operation for a conversation.
type Request struct {
	ConversationID string
	Operation      string
	RawArgs        string
}

// Operation is a named store action with its argument schema.
type Operation struct {
	Name        string
	Description string
	Schema      Schema
	Run         func(ctx context.Context, args Args) (string, error)
}

// Tool is the classifier-facing view of an Operation.
type Tool struct {
	Name        string
	Description string
	Grammar     string
}

// ProductResolver finds a product by its user-supplied name.
type ProductResolver interface {
	Resolve(ctx context.Context, name string) (resolver.Match, error)
}

// ImageDetacher removes an image from a product.
type ImageDetacher interface {
	Detach(ctx context.Context, productID, imageID int) (*woocommerce.Product, error)
}

// Recorder persists audit rows.
type Recorder interface {
	SaveOperation(ctx context.Context, entry *database.OperationLog) error
}

// Deps are the collaborators of the dispatcher. Recorder is optional.
type Deps struct {
	Client          *woocommerce.Client
	Resolver        ProductResolver
	Media           ImageDetacher
	Messages        config.MessagesConfig
	Recorder        Recorder
	Logger          *slog.Logger
	ProductListSize int
}

// Dispatcher owns the closed operation catalog.
type Dispatcher struct {
	deps     Deps
	log      *slog.Logger
	validate *validator.Validate
	ops      map[string]Operation
	names    []string
}

// New creates a Dispatcher with every store operation registered.
func New(deps Deps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.ProductListSize <= 0 {
		deps.ProductListSize = config.DefaultStoreProductListSize
	}

	d := &Dispatcher{
		deps:     deps,
		log:      deps.Logger.With("component", "dispatcher"),
		validate: validator.New(),
		ops:      make(map[string]Operation),
	}

	groups := [][]Operation{
		d.productOps(),
		d.couponOps(),
		d.orderOps(),
		d.categoryOps(),
		d.customerOps(),
		d.inventoryOps(),
		d.settingsOps(),
	}
	for _, g := range groups {
		for _, op := range g {
			d.Register(op)
		}
	}
	return d
}

// Register adds op to the catalog, replacing an operation with the same name.
func (d *Dispatcher) Register(op Operation) {
	if _, exists := d.ops[op.Name]; !exists {
		d.names = append(d.names, op.Name)
	}
	d.ops[op.Name] = op
}

// Lookup returns the operation registered under name.
func (d *Dispatcher) Lookup(name string) (Operation, bool) {
	op, ok := d.ops[name]
	return op, ok
}

// Catalog lists the registered operations in registration order.
func (d *Dispatcher) Catalog() []Tool {
	tools := make([]Tool, 0, len(d.names))
	for _, name := range d.names {
		op := d.ops[name]
		tools = append(tools, Tool{Name: op.Name, Description: op.Description, Grammar: op.Schema.Grammar()})
	}
	return tools
}

// HelpText renders the catalog for the /help command, sorted by name.
func (d *Dispatcher) HelpText() string {
	tools := d.Catalog()
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	var b strings.Builder
	b.WriteString(d.deps.Messages.HelpHeader)
	for _, t := range tools {
		fmt.Fprintf(&b, "• %s\n  פורמט: %s\n", t.Description, t.Grammar)
	}
	return b.String()
}

// Dispatch runs one operation and returns the reply text. It never returns
// an error and never panics.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (reply string) {
	start := time.Now()
	requestID := uuid.NewString()
	log := d.log.With("request_id", requestID, "operation", req.Operation, "conversation_id", req.ConversationID)

	var err error
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Operation panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("operation %s panicked: %v", req.Operation, r)
			reply = d.deps.Messages.ErrorGeneralMsg
		}
		d.record(ctx, requestID, req, err, time.Since(start))
	}()

	op, ok := d.ops[req.Operation]
	if !ok {
		err = apperr.Validation(d.deps.Messages.UnknownOperationFmt, req.Operation)
		log.WarnContext(ctx, "Unknown operation")
		return Render(err, d.deps.Messages)
	}

	var args Args
	if args, err = Parse(op.Schema, req.RawArgs); err != nil {
		log.InfoContext(ctx, "Invalid arguments", "error", err)
		return Render(err, d.deps.Messages)
	}

	var out string
	if out, err = op.Run(ctx, args); err != nil {
		switch apperr.Class(err) {
		case "validation", "not_found":
			log.InfoContext(ctx, "Operation rejected", "error", err)
		default:
			log.ErrorContext(ctx, "Operation failed", "error", err)
		}
		return Render(err, d.deps.Messages)
	}

	log.InfoContext(ctx, "Operation completed", "duration", time.Since(start))
	return out
}

func (d *Dispatcher) record(ctx context.Context, requestID string, req Request, err error, elapsed time.Duration) {
	outcome := apperr.Class(err)
	label := req.Operation
	if _, ok := d.ops[label]; !ok {
		label = "unknown"
	}
	metrics.OperationsTotal.WithLabelValues(label, outcome).Inc()
	metrics.OperationDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if d.deps.Recorder == nil {
		return
	}

	entry := &database.OperationLog{
		RequestID:      requestID,
		ConversationID: req.ConversationID,
		Operation:      req.Operation,
		Args:           req.RawArgs,
		Outcome:        outcome,
		DurationMs:     elapsed.Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if saveErr := d.deps.Recorder.SaveOperation(saveCtx, entry); saveErr != nil {
		d.log.WarnContext(ctx, "Failed to write audit log", "request_id", requestID, "error", saveErr)
	}
}

// resolve finds a product by name.
func (d *Dispatcher) resolve(ctx context.Context, name string) (woocommerce.Product, error) {
	m, err := d.deps.Resolver.Resolve(ctx, name)
	if err != nil {
		return woocommerce.Product{}, err
	}
	return m.Product, nil
}
