package media_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/media"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

func encodePNG(t *testing.T, w, h int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestNormalizeBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape downscaled", 1600, 1200, 800, 600},
		{"portrait downscaled", 500, 2000, 200, 800},
		{"square downscaled", 1000, 1000, 800, 800},
		{"small kept", 300, 200, 300, 200},
		{"exact bound kept", 800, 800, 800, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := media.Normalize(encodePNG(t, tt.w, tt.h, color.NRGBA{R: 200, A: 255}))
			img := decodeJPEG(t, out)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestNormalizeIdempotentDimensions(t *testing.T) {
	t.Parallel()

	once := media.Normalize(encodePNG(t, 1000, 333, color.NRGBA{G: 120, A: 255}))
	twice := media.Normalize(once)

	a, b := decodeJPEG(t, once), decodeJPEG(t, twice)
	assert.Equal(t, a.Bounds().Size(), b.Bounds().Size())
	assert.LessOrEqual(t, a.Bounds().Dx(), 800)
}

func TestNormalizeFlattensTransparencyOnWhite(t *testing.T) {
	t.Parallel()

	out := media.Normalize(encodePNG(t, 10, 10, color.NRGBA{}))
	img := decodeJPEG(t, out)

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeUndecodableReturnsInput(t *testing.T) {
	t.Parallel()

	in := []byte("definitely not an image")
	assert.Equal(t, in, media.Normalize(in))
}

func TestDetectType(t *testing.T) {
	t.Parallel()

	mimeType, ext := media.DetectType(media.Normalize(encodePNG(t, 4, 4, color.White)))
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, ".jpg", ext)
}

type fakeStore struct {
	product   *woocommerce.Product
	getErr    error
	uploadErr error
	updateErr error
	// emptyUpdate makes the update return no images.
	emptyUpdate bool

	uploadedName string
	updatedRefs  []woocommerce.ImageRef
	uploads      int
	updates      int
}

func (f *fakeStore) GetProduct(context.Context, int) (*woocommerce.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.product
	return &cp, nil
}

func (f *fakeStore) UploadMedia(_ context.Context, filename, _ string, _ []byte) (*woocommerce.Media, error) {
	f.uploads++
	f.uploadedName = filename
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &woocommerce.Media{ID: 99, SourceURL: "https://shop.example.com/new.jpg"}, nil
}

func (f *fakeStore) UpdateProductImages(_ context.Context, id int, refs []woocommerce.ImageRef) (*woocommerce.Product, error) {
	f.updates++
	f.updatedRefs = refs
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	out := &woocommerce.Product{ID: id, Name: f.product.Name}
	if f.emptyUpdate {
		return out, nil
	}
	for _, r := range refs {
		out.Images = append(out.Images, woocommerce.Image{ID: r.ID, Src: "https://shop.example.com/" + string(rune('a'+r.ID%26)) + ".jpg"})
	}
	return out, nil
}

func newPipeline(store media.Store) *media.Pipeline {
	return media.NewPipeline(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mug() *woocommerce.Product {
	return &woocommerce.Product{ID: 7, Name: "Mug", Images: []woocommerce.Image{{ID: 1}, {ID: 2}}}
}

func TestAttachPrependsNewImage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{product: mug()}
	img := media.Normalize(encodePNG(t, 20, 20, color.White))

	updated, err := newPipeline(store).Attach(context.Background(), 7, img)
	require.NoError(t, err)

	assert.Equal(t, []woocommerce.ImageRef{{ID: 99}, {ID: 1}, {ID: 2}}, store.updatedRefs)
	assert.Len(t, updated.Images, 3)
	assert.True(t, strings.HasPrefix(store.uploadedName, "product-7-"))
	assert.True(t, strings.HasSuffix(store.uploadedName, ".jpg"))
}

func TestAttachStages(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name        string
		store       *fakeStore
		wantStage   apperr.Stage
		wantUploads int
		wantUpdates int
	}{
		{"fetch", &fakeStore{product: mug(), getErr: boom}, apperr.StageFetch, 0, 0},
		{"upload", &fakeStore{product: mug(), uploadErr: boom}, apperr.StageUpload, 1, 0},
		{"update", &fakeStore{product: mug(), updateErr: boom}, apperr.StageUpdate, 1, 1},
		{"verify", &fakeStore{product: mug(), emptyUpdate: true}, apperr.StageVerify, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newPipeline(tt.store).Attach(context.Background(), 7, []byte("raw"))

			var ae *apperr.AttachmentError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.wantStage, ae.Stage)
			assert.Equal(t, 7, ae.ProductID)
			assert.Equal(t, tt.wantUploads, tt.store.uploads)
			assert.Equal(t, tt.wantUpdates, tt.store.updates)
		})
	}
}

func TestDetach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		product  *woocommerce.Product
		imageID  int
		wantRefs []woocommerce.ImageRef
	}{
		{"removes middle", &woocommerce.Product{ID: 7, Images: []woocommerce.Image{{ID: 1}, {ID: 2}, {ID: 3}}}, 2, []woocommerce.ImageRef{{ID: 1}, {ID: 3}}},
		{"removes last remaining", &woocommerce.Product{ID: 7, Images: []woocommerce.Image{{ID: 4}}}, 4, []woocommerce.ImageRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{product: tt.product}
			_, err := newPipeline(store).Detach(context.Background(), 7, tt.imageID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRefs, store.updatedRefs)
		})
	}
}

func TestDetachUnknownImage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{product: mug()}
	_, err := newPipeline(store).Detach(context.Background(), 7, 42)

	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Zero(t, store.updates)
}
