// Package conversation routes an admin's photos and text messages. A photo
// opens a pending upload that the next text message completes by naming the
// product; any other text goes through the classifier and the dispatcher.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/dispatch"
	"github.com/edgard/wooadminbot/internal/gemini"
	"github.com/edgard/wooadminbot/internal/media"
	"github.com/edgard/wooadminbot/internal/pending"
	"github.com/edgard/wooadminbot/internal/resolver"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

const (
	defaultProductListSize = 10
	historyTimeout         = 5 * time.Second
)

// ProductLister lists the first catalog page.
type ProductLister interface {
	ListProducts(ctx context.Context, perPage int) ([]woocommerce.Product, error)
}

// ImageAttacher makes an image the primary image of a product.
type ImageAttacher interface {
	Attach(ctx context.Context, productID int, image []byte) (*woocommerce.Product, error)
}

// OperationDispatcher runs classified operations.
type OperationDispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) string
	Catalog() []dispatch.Tool
}

// History is the conversation memory.
type History interface {
	SaveMessage(ctx context.Context, message *database.Message) error
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]database.Message, error)
	DeleteConversationMessages(ctx context.Context, conversationID string) (int64, error)
}

// Deps are the collaborators of the engine. History is optional.
type Deps struct {
	Pending         pending.Store
	Products        ProductLister
	Resolver        dispatch.ProductResolver
	Media           ImageAttacher
	Dispatcher      OperationDispatcher
	Classifier      gemini.Classifier
	History         History
	Normalizer      media.Normalizer
	Messages        config.MessagesConfig
	ProductListSize int
	HistoryMessages int
	Logger          *slog.Logger
}

// Engine handles the messages of all conversations.
type Engine struct {
	deps Deps
	log  *slog.Logger
}

// New creates an Engine.
func New(deps Deps) *Engine {
	if deps.ProductListSize <= 0 {
		deps.ProductListSize = defaultProductListSize
	}
	return &Engine{deps: deps, log: deps.Logger.With("component", "conversation")}
}

// ConversationID is the key of a Telegram chat's conversation.
func ConversationID(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

// HandlePhoto stores image as the conversation's pending upload, replacing
// any earlier one, and asks which product it belongs to.
func (e *Engine) HandlePhoto(ctx context.Context, conv string, image []byte) string {
	normalized := e.deps.Normalizer.Normalize(image)
	mimeType, _ := media.DetectType(normalized)

	err := e.deps.Pending.Put(ctx, conv, pending.Upload{Image: normalized, MIMEType: mimeType})
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to store pending upload", "conversation", conv, "error", err)
		return e.deps.Messages.PhotoErrorMsg
	}

	products, err := e.deps.Products.ListProducts(ctx, e.deps.ProductListSize)
	if err != nil || len(products) == 0 {
		e.discard(ctx, conv)
		if err != nil {
			e.log.ErrorContext(ctx, "Failed to list products for photo", "conversation", conv, "error", err)
			return dispatch.Render(err, e.deps.Messages)
		}
		return e.deps.Messages.PhotoNoProductsMsg
	}

	e.log.InfoContext(ctx, "Pending upload stored", "conversation", conv, "bytes", len(normalized), "mime", mimeType)
	return fmt.Sprintf(e.deps.Messages.PhotoPromptFmt, dispatch.ProductLines(products))
}

// HandleText completes a pending upload when there is one and otherwise
// classifies and dispatches text. Text is never classified while the pending
// state is unreadable.
func (e *Engine) HandleText(ctx context.Context, conv, text string) string {
	upload, ok, err := e.deps.Pending.Get(ctx, conv)
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to read pending upload", "conversation", conv, "error", err)
		return e.deps.Messages.ErrorGeneralMsg
	}
	if ok {
		return e.completeUpload(ctx, conv, text, upload)
	}
	return e.classify(ctx, conv, text)
}

// HasPending reports whether conv waits for a product name.
func (e *Engine) HasPending(ctx context.Context, conv string) bool {
	_, ok, err := e.deps.Pending.Get(ctx, conv)
	return err == nil && ok
}

// Reset forgets the conversation's history and pending upload.
func (e *Engine) Reset(ctx context.Context, conv string) error {
	var errs []error
	if err := e.deps.Pending.Delete(ctx, conv); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete pending upload: %w", err))
	}
	if e.deps.History != nil {
		n, err := e.deps.History.DeleteConversationMessages(ctx, conv)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete history: %w", err))
		} else {
			e.log.InfoContext(ctx, "Conversation reset", "conversation", conv, "messages", n)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) completeUpload(ctx context.Context, conv, text string, upload pending.Upload) string {
	name := resolver.Normalize(text)

	match, err := e.deps.Resolver.Resolve(ctx, name)
	if err != nil {
		switch apperr.Class(err) {
		case "not_found", "validation":
			// The upload stays pending so the admin can pick again.
			return e.reprompt(ctx, name)
		default:
			e.discard(ctx, conv)
			return dispatch.Render(err, e.deps.Messages)
		}
	}

	product, err := e.deps.Media.Attach(ctx, match.Product.ID, upload.Image)
	e.discard(ctx, conv)
	if err != nil {
		return dispatch.Render(err, e.deps.Messages)
	}

	reply := fmt.Sprintf(e.deps.Messages.AttachSuccessFmt, product.Name)
	if len(product.Images) > 0 {
		reply += "\n\n" + fmt.Sprintf(e.deps.Messages.AttachPreviewFmt, product.Images[0].Src, len(product.Images))
	}
	return reply
}

func (e *Engine) reprompt(ctx context.Context, name string) string {
	products, err := e.deps.Products.ListProducts(ctx, e.deps.ProductListSize)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to list products for re-prompt", "error", err)
		return dispatch.Render(err, e.deps.Messages)
	}
	return fmt.Sprintf(e.deps.Messages.PhotoNotFoundFmt, name, dispatch.ProductLines(products))
}

func (e *Engine) discard(ctx context.Context, conv string) {
	if err := e.deps.Pending.Delete(ctx, conv); err != nil {
		e.log.ErrorContext(ctx, "Failed to delete pending upload", "conversation", conv, "error", err)
	}
}

func (e *Engine) classify(ctx context.Context, conv, text string) string {
	history := e.history(ctx, conv)

	intent, err := e.deps.Classifier.Classify(ctx, history, text, e.deps.Dispatcher.Catalog())
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to classify message", "conversation", conv, "error", err)
		return e.deps.Messages.ClassifierErrorMsg
	}

	reply := intent.Reply
	if intent.Operation != "" {
		reply = e.deps.Dispatcher.Dispatch(ctx, dispatch.Request{
			ConversationID: conv,
			Operation:      intent.Operation,
			RawArgs:        intent.Args,
		})
	}

	e.remember(ctx, conv, text, reply)
	return reply
}

func (e *Engine) history(ctx context.Context, conv string) []database.Message {
	if e.deps.History == nil || e.deps.HistoryMessages <= 0 {
		return nil
	}
	msgs, err := e.deps.History.GetRecentMessages(ctx, conv, e.deps.HistoryMessages)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to load conversation history", "conversation", conv, "error", err)
		return nil
	}
	return msgs
}

// remember stores both turns. Failures are logged and the reply still goes out.
func (e *Engine) remember(ctx context.Context, conv, text, reply string) {
	if e.deps.History == nil || strings.TrimSpace(reply) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	now := time.Now().UTC()
	turns := []*database.Message{
		{ConversationID: conv, Role: database.RoleUser, Content: text, CreatedAt: now},
		{ConversationID: conv, Role: database.RoleModel, Content: reply, CreatedAt: now},
	}
	for _, m := range turns {
		if err := e.deps.History.SaveMessage(ctx, m); err != nil {
			e.log.WarnContext(ctx, "Failed to save conversation turn", "conversation", conv, "role", m.Role, "error", err)
			return
		}
	}
}
