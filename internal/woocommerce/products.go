package woocommerce

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/edgard/wooadminbot/internal/apperr"
)

// SearchProducts runs the store's fuzzy product search.
func (c *Client) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	return Get[[]Product](ctx, c, "products", url.Values{"search": {term}})
}

// ListProducts returns the first page of products.
func (c *Client) ListProducts(ctx context.Context, perPage int) ([]Product, error) {
	return Get[[]Product](ctx, c, "products", url.Values{"per_page": {strconv.Itoa(perPage)}})
}

// GetProduct fetches a product by id.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	p, err := Get[Product](ctx, c, productPath(id), nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct applies a partial update to a product.
func (c *Client) UpdateProduct(ctx context.Context, id int, fields map[string]any) (*Product, error) {
	p, err := Put[Product](ctx, c, productPath(id), fields)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProductImages replaces the product's image list. The first entry
// becomes the primary image; an empty list removes every image.
func (c *Client) UpdateProductImages(ctx context.Context, id int, images []ImageRef) (*Product, error) {
	if images == nil {
		images = []ImageRef{}
	}
	return c.UpdateProduct(ctx, id, map[string]any{"images": images})
}

// UploadMedia uploads an image to the WordPress media library with
// application-password basic auth and returns the new media item.
func (c *Client) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*Media, error) {
	const op = "POST media"

	body, contentType, err := multipartImage(filename, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp *Response
	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mediaURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: %w", errBuildRequest, err)
		}
		req.SetBasicAuth(c.wpUser, c.wpAppPassword)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		r, err := c.do(req, http.MethodPost, "media")
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if !isTransportError(err) {
			return nil, err
		}
		return nil, &apperr.RemoteError{Op: op, Transport: true, Err: err}
	}
	if err := resp.Err(op); err != nil {
		return nil, err
	}

	var media Media
	if err := resp.Decode(&media); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if media.ID == 0 {
		return nil, fmt.Errorf("%s: response has no media id", op)
	}
	return &media, nil
}

func multipartImage(filename, mimeType string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func productPath(id int) string {
	return "products/" + strconv.Itoa(id)
}
