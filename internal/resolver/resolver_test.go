package resolver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/resolver"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

type fakeSource struct {
	search    map[string][]woocommerce.Product
	catalog   []woocommerce.Product
	searchErr error
	listErr   error

	searched []string
	listed   []int
}

func (f *fakeSource) SearchProducts(_ context.Context, term string) ([]woocommerce.Product, error) {
	f.searched = append(f.searched, term)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search[term], nil
}

func (f *fakeSource) ListProducts(_ context.Context, perPage int) ([]woocommerce.Product, error) {
	f.listed = append(f.listed, perPage)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.catalog, nil
}

func newResolver(src resolver.ProductSource) *resolver.Resolver {
	return resolver.New(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveTiers(t *testing.T) {
	t.Parallel()

	catalog := []woocommerce.Product{
		{ID: 1, Name: "Blue Shirt"},
		{ID: 2, Name: "Red Shirt"},
		{ID: 3, Name: "red shirt deluxe"},
	}

	tests := []struct {
		name     string
		query    string
		search   map[string][]woocommerce.Product
		wantID   int
		wantTier resolver.Tier
	}{
		{
			name:     "search wins even with an exact match in catalog",
			query:    "Red Shirt",
			search:   map[string][]woocommerce.Product{"Red Shirt": {{ID: 3, Name: "red shirt deluxe"}, {ID: 2, Name: "Red Shirt"}}},
			wantID:   3,
			wantTier: resolver.TierSearch,
		},
		{
			name:     "exact match ignores case",
			query:    "RED SHIRT",
			wantID:   2,
			wantTier: resolver.TierExact,
		},
		{
			name:     "exact beats earlier substring",
			query:    "red shirt",
			wantID:   2,
			wantTier: resolver.TierExact,
		},
		{
			name:     "substring returns first in catalog order",
			query:    "shirt",
			wantID:   1,
			wantTier: resolver.TierSubstring,
		},
		{
			name:     "whitespace is normalized",
			query:    "  Red    Shirt ",
			wantID:   2,
			wantTier: resolver.TierExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := &fakeSource{search: tt.search, catalog: catalog}
			m, err := newResolver(src).Resolve(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, m.Product.ID)
			assert.Equal(t, tt.wantTier, m.Tier)
		})
	}
}

func TestResolveSearchSkipsCatalog(t *testing.T) {
	t.Parallel()

	src := &fakeSource{search: map[string][]woocommerce.Product{"mug": {{ID: 9, Name: "Mug"}}}}
	_, err := newResolver(src).Resolve(context.Background(), "mug")
	require.NoError(t, err)
	assert.Empty(t, src.listed)
}

func TestResolveCatalogPageSize(t *testing.T) {
	t.Parallel()

	src := &fakeSource{catalog: []woocommerce.Product{{ID: 1, Name: "Mug"}}}
	_, err := newResolver(src).Resolve(context.Background(), "mug")
	require.NoError(t, err)
	assert.Equal(t, []int{100}, src.listed)
}

func TestResolveNotFound(t *testing.T) {
	t.Parallel()

	src := &fakeSource{catalog: []woocommerce.Product{{ID: 1, Name: "Mug"}}}
	_, err := newResolver(src).Resolve(context.Background(), "Teapot")

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Teapot", nf.Query)
}

func TestResolveEmptyName(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	_, err := newResolver(src).Resolve(context.Background(), "   ")

	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, src.searched)
}

func TestResolveRemoteErrors(t *testing.T) {
	t.Parallel()

	remote := &apperr.RemoteError{Op: "GET products", Transport: true, Err: errors.New("refused")}

	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"search fails", &fakeSource{searchErr: remote}},
		{"catalog fails", &fakeSource{listErr: remote}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newResolver(tt.src).Resolve(context.Background(), "Mug")
			assert.Equal(t, "remote", apperr.Class(err))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "חולצה אדומה", resolver.Normalize("  חולצה \t  אדומה\n"))
	assert.Equal(t, "", resolver.Normalize(" \n "))
}
