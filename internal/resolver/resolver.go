// Package resolver turns a free-text product name into a single store product.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

// catalogPageSize is the page fetched for the exact and substring tiers.
const catalogPageSize = 100

// Tier identifies which lookup produced a match.
type Tier int

const (
	TierSearch Tier = iota + 1
	TierExact
	TierSubstring
)

func (t Tier) String() string {
	switch t {
	case TierSearch:
		return "search"
	case TierExact:
		return "exact"
	case TierSubstring:
		return "substring"
	default:
		return "unknown"
	}
}

// ProductSource is the part of the store client the resolver needs.
type ProductSource interface {
	SearchProducts(ctx context.Context, term string) ([]woocommerce.Product, error)
	ListProducts(ctx context.Context, perPage int) ([]woocommerce.Product, error)
}

// Match is a resolved product and the tier that found it.
type Match struct {
	Product woocommerce.Product
	Tier    Tier
}

// Resolver looks products up by name.
type Resolver struct {
	src ProductSource
	log *slog.Logger
}

// New creates a Resolver.
func New(src ProductSource, log *slog.Logger) *Resolver {
	return &Resolver{src: src, log: log.With("component", "resolver")}
}

// Resolve returns the first product of the most specific tier with any
// result: the store's search, then a case-insensitive exact name match, then
// a case-insensitive substring match over the first catalog page. No match is
// a NotFoundError; store failures are returned as they come.
func (r *Resolver) Resolve(ctx context.Context, name string) (Match, error) {
	query := Normalize(name)
	if query == "" {
		return Match{}, apperr.Validation("נדרש שם מוצר")
	}

	found, err := r.src.SearchProducts(ctx, query)
	if err != nil {
		return Match{}, err
	}
	if len(found) > 0 {
		return r.matched(found[0], TierSearch, query), nil
	}

	catalog, err := r.src.ListProducts(ctx, catalogPageSize)
	if err != nil {
		return Match{}, err
	}

	for _, p := range catalog {
		if strings.EqualFold(strings.TrimSpace(p.Name), query) {
			return r.matched(p, TierExact, query), nil
		}
	}

	lower := strings.ToLower(query)
	for _, p := range catalog {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			return r.matched(p, TierSubstring, query), nil
		}
	}

	r.log.Debug("No product matched", "query", query, "catalog_size", len(catalog))
	return Match{}, apperr.NotFound("מוצר", query)
}

func (r *Resolver) matched(p woocommerce.Product, tier Tier, query string) Match {
	r.log.Debug("Product resolved", "query", query, "product_id", p.ID, "tier", tier)
	return Match{Product: p, Tier: tier}
}

// Normalize trims name and collapses internal whitespace runs to one space.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
