package catalog

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/retry"
	"github.com/velourdrapes/backoffice/internal/state"
)

// ListKey is the prefix shared by every product list page.
var ListKey = state.Key{"products"}

// ItemKey is the cache key of a single product.
func ItemKey(id string) state.Key {
	return state.Key{"product", id}
}

// Service reads and writes products.
type Service struct {
	remote   api.Remote
	cache    state.Querier
	coord    *mutation.Coordinator
	taxonomy Taxonomy
	preparer media.Preparer
	reads    retry.Policy
	logger   *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithTaxonomy sets the accepted categories.
func WithTaxonomy(t Taxonomy) Option {
	return func(s *Service) { s.taxonomy = t }
}

// WithPreparer sets how uploads are prepared.
func WithPreparer(p media.Preparer) Option {
	return func(s *Service) { s.preparer = p }
}

// WithReadRetry sets the retry policy for list and item reads.
func WithReadRetry(p retry.Policy) Option {
	return func(s *Service) { s.reads = p }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires the product service.
func NewService(remote api.Remote, cache state.Querier, coord *mutation.Coordinator, opts ...Option) *Service {
	s := &Service{
		remote:   remote,
		cache:    cache,
		coord:    coord,
		taxonomy: NewTaxonomy(nil),
		preparer: media.Preparer{MaxDimension: media.DefaultMaxDimension},
		reads:    retry.Policy{Retries: 1, Delay: time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Taxonomy returns the configured categories.
func (s *Service) Taxonomy() Taxonomy { return s.taxonomy }

// ListView is what the console renders for a filter.
type ListView struct {
	Page api.ProductPage
	// Loaded is false until any page of the list has arrived.
	Loaded bool
	// Placeholder is true while a different page is shown in place of the
	// requested one.
	Placeholder bool
	Fetching    bool
	Err         error
}

// List returns the page selected by f, reading through the cache. A
// disabled filter returns an empty page without touching the network.
func (s *Service) List(ctx context.Context, f Filter) (api.ProductPage, error) {
	if !f.Enabled() {
		return api.ProductPage{Products: []api.Product{}}, nil
	}
	page, err := state.FetchAs(ctx, s.cache, f.Key(), func(ctx context.Context) (api.ProductPage, error) {
		return retry.Do(ctx, s.reads, func(ctx context.Context) (api.ProductPage, error) {
			return s.remote.ListProducts(ctx, f.Values())
		})
	})
	if err != nil {
		return api.ProductPage{}, err
	}
	return page.Clone(), nil
}

// View reports the cached state for f without fetching. While the
// requested page has no value the most recently loaded page stands in.
func (s *Service) View(f Filter) ListView {
	var v ListView
	e, ok := s.cache.Get(f.Key())
	if ok {
		v.Fetching = e.Fetching
		v.Err = e.Err
	}
	if ok && e.HasValue {
		if page, typed := e.Value.(api.ProductPage); typed {
			v.Page = page.Clone()
			v.Loaded = true
			return v
		}
	}
	if prev, found := s.cache.Latest(ListKey); found {
		if page, typed := prev.Value.(api.ProductPage); typed {
			v.Page = page.Clone()
			v.Loaded = true
			v.Placeholder = true
		}
	}
	return v
}

// Get returns one product, reading through ["product", id].
func (s *Service) Get(ctx context.Context, id string) (api.Product, error) {
	p, err := state.FetchAs(ctx, s.cache, ItemKey(id), func(ctx context.Context) (api.Product, error) {
		return retry.Do(ctx, s.reads, func(ctx context.Context) (api.Product, error) {
			return s.remote.GetProduct(ctx, id)
		})
	})
	if err != nil {
		return api.Product{}, err
	}
	return p.Clone(), nil
}

// Create validates d and posts it. Nothing is written optimistically; the
// list is invalidated once the outcome is known.
func (s *Service) Create(ctx context.Context, d Draft) (api.Product, error) {
	if err := d.Validate(s.taxonomy); err != nil {
		return api.Product{}, err
	}
	in, err := d.Input(s.preparer)
	if err != nil {
		return api.Product{}, err
	}
	spec := mutation.Spec[api.ProductInput, api.Product]{
		Name:   "create product",
		Keys:   []state.Key{ListKey},
		Invoke: s.remote.CreateProduct,
		OnSuccess: func(store state.Store, p api.Product, _ api.ProductInput) {
			if p.ID != "" {
				store.Set(ItemKey(p.ID), p.Clone())
			}
		},
		Settle: []state.Key{ListKey},
	}
	p, err := mutation.Run(ctx, s.coord, spec, in)
	if err != nil {
		return api.Product{}, err
	}
	s.logger.Info("product created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

type updateVars struct {
	id    string
	draft Draft
	input api.ProductInput
}

// Update validates d and replaces product id. The lists and the item show
// the edit immediately and roll back if the server rejects it.
func (s *Service) Update(ctx context.Context, id string, d Draft) (api.Product, error) {
	if err := d.Validate(s.taxonomy); err != nil {
		return api.Product{}, err
	}
	in, err := d.Input(s.preparer)
	if err != nil {
		return api.Product{}, err
	}
	spec := mutation.Spec[updateVars, api.Product]{
		Name: "update product",
		Keys: []state.Key{ListKey, ItemKey(id)},
		Optimistic: func(key state.Key, prev any, hasPrev bool, v updateVars) (any, bool) {
			return patchProduct(prev, hasPrev, v.id, v.draft.apply)
		},
		Invoke: func(ctx context.Context, v updateVars) (api.Product, error) {
			return s.remote.UpdateProduct(ctx, v.id, v.input)
		},
		OnSuccess: func(store state.Store, p api.Product, v updateVars) {
			store.Set(ItemKey(v.id), p.Clone())
		},
		Settle: []state.Key{ListKey},
	}
	return mutation.Run(ctx, s.coord, spec, updateVars{id: id, draft: d, input: in})
}

// ToggleStatus flips a product between active and inactive.
func (s *Service) ToggleStatus(ctx context.Context, id string) (api.Product, error) {
	flip := func(p api.Product) api.Product {
		out := p.Clone()
		out.Status = !p.Status
		return out
	}
	spec := mutation.Spec[string, api.Product]{
		Name: "toggle product status",
		Keys: []state.Key{ListKey, ItemKey(id)},
		Optimistic: func(key state.Key, prev any, hasPrev bool, id string) (any, bool) {
			return patchProduct(prev, hasPrev, id, flip)
		},
		Invoke: s.remote.ToggleProductStatus,
		Settle: []state.Key{ListKey},
	}
	return mutation.Run(ctx, s.coord, spec, id)
}

// Delete removes a product. It disappears from cached lists at once and
// its item entry is dropped after the server confirms.
func (s *Service) Delete(ctx context.Context, id string) error {
	spec := mutation.Spec[string, struct{}]{
		Name: "delete product",
		Keys: []state.Key{ListKey},
		Optimistic: func(key state.Key, prev any, hasPrev bool, id string) (any, bool) {
			page, ok := prev.(api.ProductPage)
			if !hasPrev || !ok {
				return nil, false
			}
			i := page.Index(id)
			if i < 0 {
				return nil, false
			}
			out := page.Clone()
			out.Products = slices.Delete(out.Products, i, i+1)
			if out.TotalCount > 0 {
				out.TotalCount--
			}
			return out, true
		},
		Invoke: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, s.remote.DeleteProduct(ctx, id)
		},
		OnSuccess: func(store state.Store, _ struct{}, id string) {
			store.Remove(ItemKey(id))
		},
		Settle: []state.Key{ListKey},
	}
	_, err := mutation.Run(ctx, s.coord, spec, id)
	return err
}

// patchProduct applies fn to the product id inside a cached page or item.
func patchProduct(prev any, hasPrev bool, id string, fn func(api.Product) api.Product) (any, bool) {
	if !hasPrev {
		return nil, false
	}
	switch v := prev.(type) {
	case api.ProductPage:
		i := v.Index(id)
		if i < 0 {
			return nil, false
		}
		out := v.Clone()
		out.Products[i] = fn(out.Products[i])
		return out, true
	case api.Product:
		if v.ID != id {
			return nil, false
		}
		return fn(v), true
	default:
		return nil, false
	}
}
