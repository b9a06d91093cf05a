package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/metrics"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

// Store is the part of the store client the pipeline needs.
type Store interface {
	GetProduct(ctx context.Context, id int) (*woocommerce.Product, error)
	UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*woocommerce.Media, error)
	UpdateProductImages(ctx context.Context, id int, images []woocommerce.ImageRef) (*woocommerce.Product, error)
}

// Pipeline attaches and detaches product images.
type Pipeline struct {
	store Store
	log   *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(store Store, log *slog.Logger) *Pipeline {
	return &Pipeline{store: store, log: log.With("component", "media")}
}

// Attach uploads image to the media library and makes it the product's
// primary image, keeping the existing images after it in their order. Each
// failure is an AttachmentError tagged with the failing stage.
func (p *Pipeline) Attach(ctx context.Context, productID int, image []byte) (*woocommerce.Product, error) {
	product, err := p.attach(ctx, productID, image)
	if err != nil {
		stage := "error"
		var ae *apperr.AttachmentError
		if errors.As(err, &ae) {
			stage = string(ae.Stage)
		}
		metrics.ImageAttachTotal.WithLabelValues(stage).Inc()
		p.log.ErrorContext(ctx, "Failed to attach image", "product_id", productID, "error", err)
		return nil, err
	}
	metrics.ImageAttachTotal.WithLabelValues("ok").Inc()
	p.log.InfoContext(ctx, "Image attached", "product_id", productID, "images", len(product.Images))
	return product, nil
}

func (p *Pipeline) attach(ctx context.Context, productID int, image []byte) (*woocommerce.Product, error) {
	current, err := p.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, apperr.Attachment(apperr.StageFetch, productID, err)
	}

	mimeType, ext := DetectType(image)
	filename := fmt.Sprintf("product-%d-%s%s", productID, uuid.NewString(), ext)
	uploaded, err := p.store.UploadMedia(ctx, filename, mimeType, image)
	if err != nil {
		return nil, apperr.Attachment(apperr.StageUpload, productID, err)
	}

	refs := make([]woocommerce.ImageRef, 0, len(current.Images)+1)
	refs = append(refs, woocommerce.ImageRef{ID: uploaded.ID})
	for _, img := range current.Images {
		if img.ID != 0 && img.ID != uploaded.ID {
			refs = append(refs, woocommerce.ImageRef{ID: img.ID})
		}
	}

	updated, err := p.store.UpdateProductImages(ctx, productID, refs)
	if err != nil {
		return nil, apperr.Attachment(apperr.StageUpdate, productID, err)
	}
	if len(updated.Images) == 0 {
		return nil, apperr.Attachment(apperr.StageVerify, productID, errors.New("product has no images after update"))
	}
	return updated, nil
}

// Detach removes one image from the product by sending the full remaining
// list, which may be empty.
func (p *Pipeline) Detach(ctx context.Context, productID, imageID int) (*woocommerce.Product, error) {
	current, err := p.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	refs := make([]woocommerce.ImageRef, 0, len(current.Images))
	found := false
	for _, img := range current.Images {
		if img.ID == imageID {
			found = true
			continue
		}
		refs = append(refs, woocommerce.ImageRef{ID: img.ID})
	}
	if !found {
		return nil, apperr.NotFound("תמונה", strconv.Itoa(imageID))
	}

	updated, err := p.store.UpdateProductImages(ctx, productID, refs)
	if err != nil {
		return nil, err
	}
	p.log.InfoContext(ctx, "Image detached", "product_id", productID, "image_id", imageID, "remaining", len(updated.Images))
	return updated, nil
}
