package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/retry"
	"github.com/velourdrapes/backoffice/internal/state"
)

// fakeRemote overrides the product calls a test needs; anything else
// panics through the nil embedded interface.
type fakeRemote struct {
	api.Remote
	list   func(ctx context.Context) (api.ProductPage, error)
	get    func(ctx context.Context, id string) (api.Product, error)
	update func(ctx context.Context, id string, in api.ProductInput) (api.Product, error)
	toggle func(ctx context.Context, id string) (api.Product, error)
	delete func(ctx context.Context, id string) error
}

func (f *fakeRemote) ListProducts(ctx context.Context, _ url.Values) (api.ProductPage, error) {
	return f.list(ctx)
}

func (f *fakeRemote) GetProduct(ctx context.Context, id string) (api.Product, error) {
	return f.get(ctx, id)
}

func (f *fakeRemote) UpdateProduct(ctx context.Context, id string, in api.ProductInput) (api.Product, error) {
	return f.update(ctx, id, in)
}

func (f *fakeRemote) ToggleProductStatus(ctx context.Context, id string) (api.Product, error) {
	return f.toggle(ctx, id)
}

func (f *fakeRemote) DeleteProduct(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

func newTestService(remote api.Remote) (*Service, *state.Cache) {
	cache := state.NewCache()
	coord := mutation.New(cache, mutation.WithRetry(retry.Policy{Retries: 2}))
	svc := NewService(remote, cache, coord, WithReadRetry(retry.Policy{}))
	return svc, cache
}

func seedPage(cache *state.Cache, f Filter, products ...api.Product) {
	cache.Set(f.Key(), api.ProductPage{
		Products:    products,
		CurrentPage: f.Page,
		TotalPages:  1,
		TotalCount:  len(products),
	})
}

func TestService_ToggleWhileOfflineRollsBack(t *testing.T) {
	var svc *Service
	var cache *state.Cache
	calls := 0
	remote := &fakeRemote{
		toggle: func(ctx context.Context, id string) (api.Product, error) {
			calls++
			page, ok := state.Value[api.ProductPage](cache, Filter{Page: 1}.Key())
			require.True(t, ok)
			assert.False(t, page.Products[0].Status, "optimistic flip visible before the call resolves")
			item, ok := state.Value[api.Product](cache, ItemKey("p1"))
			require.True(t, ok)
			assert.False(t, item.Status)
			return api.Product{}, &api.RemoteError{Message: api.TransportFailure}
		},
	}
	svc, cache = newTestService(remote)
	f := Filter{Page: 1}
	seedPage(cache, f, api.Product{ID: "p1", Status: true}, api.Product{ID: "p2", Status: true})
	cache.Set(ItemKey("p1"), api.Product{ID: "p1", Status: true})
	itemBefore, _ := cache.Get(ItemKey("p1"))
	listBefore, _ := cache.Get(f.Key())

	_, err := svc.ToggleStatus(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, api.IsTransport(err))
	assert.Equal(t, 3, calls, "transport failures are retried twice")

	itemAfter, _ := cache.Get(ItemKey("p1"))
	assert.Equal(t, itemBefore, itemAfter)

	listAfter, _ := cache.Get(f.Key())
	assert.Equal(t, listBefore.Value, listAfter.Value)
	assert.True(t, listAfter.Stale, "list is invalidated when the mutation settles")
	page := listAfter.Value.(api.ProductPage)
	assert.True(t, page.Products[0].Status)
}

func TestService_UpdateRollbackAndSuccess(t *testing.T) {
	fail := true
	remote := &fakeRemote{
		update: func(ctx context.Context, id string, in api.ProductInput) (api.Product, error) {
			if fail {
				return api.Product{}, &api.RemoteError{Message: "Name taken", Status: 409}
			}
			return api.Product{ID: id, Name: in.Name, Category: in.Category, Description: in.Description, UpdatedAt: "2025-06-01T00:00:00Z"}, nil
		},
	}
	svc, cache := newTestService(remote)
	f := Filter{Page: 1}
	orig := api.Product{ID: "p1", Name: "Old", Category: "Premium", Description: "d", Media: []string{"u1"}}
	seedPage(cache, f, orig)
	cache.Set(ItemKey("p1"), orig)
	before, _ := cache.Get(ItemKey("p1"))

	d := DraftFrom(orig)
	d.Name = "New"
	_, err := svc.Update(context.Background(), "p1", d)
	require.Error(t, err)
	assert.Equal(t, 409, api.StatusOf(err))
	after, _ := cache.Get(ItemKey("p1"))
	assert.Equal(t, before, after)

	fail = false
	got, err := svc.Update(context.Background(), "p1", d)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	item, _ := cache.Get(ItemKey("p1"))
	assert.Equal(t, "New", item.Value.(api.Product).Name)
	assert.False(t, item.Stale, "server response is merged into the item entry")
	list, _ := cache.Get(f.Key())
	assert.True(t, list.Stale)
	assert.Equal(t, "New", list.Value.(api.ProductPage).Products[0].Name)
}

func TestService_UpdateKeepsCoverIndexInsideMedia(t *testing.T) {
	var cache *state.Cache
	checkCover := func(p api.Product) {
		if p.PrimaryIndex == nil {
			return
		}
		assert.Less(t, *p.PrimaryIndex, len(p.Media), "cover %d outside media %v", *p.PrimaryIndex, p.Media)
	}
	var seen []api.Product
	remote := &fakeRemote{
		update: func(ctx context.Context, id string, in api.ProductInput) (api.Product, error) {
			item, ok := state.Value[api.Product](cache, ItemKey("p1"))
			require.True(t, ok)
			page, ok := state.Value[api.ProductPage](cache, Filter{Page: 1}.Key())
			require.True(t, ok)
			checkCover(item)
			checkCover(page.Products[0])
			seen = append(seen, item)
			return api.Product{}, &api.RemoteError{Message: "Name taken", Status: 409}
		},
	}
	var svc *Service
	svc, cache = newTestService(remote)
	one := 1
	orig := api.Product{ID: "p1", Name: "n", Category: "Premium", Description: "d", Media: []string{"a", "b"}, PrimaryIndex: &one}
	seedPage(cache, Filter{Page: 1}, orig)

	// Removing the first image shifts the cover down to position 0.
	cache.Set(ItemKey("p1"), orig)
	d := DraftFrom(orig)
	d.Media[0] = media.MarkedForRemoval()
	_, _ = svc.Update(context.Background(), "p1", d)
	require.Len(t, seen, 1)
	assert.Equal(t, []string{"b"}, seen[0].Media)
	require.NotNil(t, seen[0].PrimaryIndex)
	assert.Equal(t, 0, *seen[0].PrimaryIndex)

	// A cover on a pending upload has no URL yet.
	cache.Set(ItemKey("p1"), orig)
	d = DraftFrom(orig)
	d.Media[2] = media.PendingUpload("c.jpg", []byte("x"))
	two := 2
	d.Primary = &two
	_, _ = svc.Update(context.Background(), "p1", d)
	require.Len(t, seen, 2)
	assert.Equal(t, []string{"a", "b"}, seen[1].Media)
	assert.Nil(t, seen[1].PrimaryIndex)
}

func TestService_UpdateRejectsInvalidDraftWithoutNetwork(t *testing.T) {
	svc, _ := newTestService(&fakeRemote{})
	_, err := svc.Update(context.Background(), "p1", Draft{Category: Premium})
	assert.True(t, IsValidation(err))
}

func TestService_DeleteRemovesOptimisticallyAndDropsItem(t *testing.T) {
	var cache *state.Cache
	remote := &fakeRemote{
		delete: func(ctx context.Context, id string) error {
			page, _ := state.Value[api.ProductPage](cache, Filter{Page: 1}.Key())
			assert.Len(t, page.Products, 1)
			assert.Equal(t, 1, page.TotalCount)
			return nil
		},
	}
	var svc *Service
	svc, cache = newTestService(remote)
	seedPage(cache, Filter{Page: 1}, api.Product{ID: "p1"}, api.Product{ID: "p2"})
	cache.Set(ItemKey("p1"), api.Product{ID: "p1"})

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	_, ok := cache.Get(ItemKey("p1"))
	assert.False(t, ok)
	list, _ := cache.Get(Filter{Page: 1}.Key())
	assert.True(t, list.Stale)
}

func TestService_DeleteFailureRestoresList(t *testing.T) {
	remote := &fakeRemote{
		delete: func(ctx context.Context, id string) error {
			return &api.RemoteError{Message: "Product not found", Status: 404}
		},
	}
	svc, cache := newTestService(remote)
	f := Filter{Page: 1}
	seedPage(cache, f, api.Product{ID: "p1"}, api.Product{ID: "p2"})
	before, _ := cache.Get(f.Key())

	err := svc.Delete(context.Background(), "p1")
	assert.EqualError(t, err, "Product not found")
	after, _ := cache.Get(f.Key())
	assert.Equal(t, before.Value, after.Value)
	assert.True(t, after.Stale)
}

func TestService_ViewKeepsPreviousPageWhileLoading(t *testing.T) {
	svc, cache := newTestService(&fakeRemote{})
	seedPage(cache, Filter{Page: 1}, api.Product{ID: "p1"})

	v := svc.View(Filter{Page: 2})
	assert.True(t, v.Loaded)
	assert.True(t, v.Placeholder)
	assert.Equal(t, "p1", v.Page.Products[0].ID)

	v = svc.View(Filter{Page: 1})
	assert.False(t, v.Placeholder)

	empty, _ := newTestService(&fakeRemote{})
	assert.False(t, empty.View(Filter{Page: 1}).Loaded)
}

func TestService_ListDisabledFilterSkipsNetwork(t *testing.T) {
	svc, _ := newTestService(&fakeRemote{})
	page, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
}

func TestService_GetReadsThroughItemKey(t *testing.T) {
	calls := 0
	svc, cache := newTestService(&fakeRemote{
		get: func(ctx context.Context, id string) (api.Product, error) {
			calls++
			return api.Product{ID: id, Name: "Chidiya"}, nil
		},
	})
	p, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Chidiya", p.Name)
	_, err = svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	_, ok := cache.Get(ItemKey("p1"))
	assert.True(t, ok)
}

// productServer is a tiny in-memory admin API that lists newest first.
type productServer struct {
	mu       sync.Mutex
	products []api.Product
}

func (s *productServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": s.products,
			"page":     r.URL.Query().Get("page"),
			"pages":    1,
			"total":    len(s.products),
		})
	case r.Method == http.MethodPost && r.URL.Path == "/api/products":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, `{"message":"bad form"}`, http.StatusBadRequest)
			return
		}
		p := api.Product{
			ID:          "p1",
			Name:        r.FormValue("name"),
			Category:    r.FormValue("category"),
			Description: r.FormValue("description"),
			Status:      true,
		}
		if files := r.MultipartForm.File["media"]; len(files) > 0 {
			p.Media = []string{"https://cdn.example/" + files[0].Filename}
		}
		s.products = append([]api.Product{p}, s.products...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	default:
		http.NotFound(w, r)
	}
}

func TestService_CreateInvalidatesListAndNewestComesFirst(t *testing.T) {
	backend := &productServer{products: []api.Product{{ID: "p0", Name: "Older"}}}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	client, err := api.NewClient(srv.URL + "/api")
	require.NoError(t, err)
	svc, cache := newTestService(client)
	f := Filter{Page: 1}

	page, err := svc.List(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	d := NewDraft(svc.Taxonomy())
	d.Name = "Chidiya"
	d.Description = "x"
	d.Media[0] = media.PendingUpload("chidiya.jpg", []byte("not really a jpeg"))
	created, err := svc.Create(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	assert.Equal(t, []string{"https://cdn.example/chidiya.jpg"}, created.Media)

	e, _ := cache.Get(f.Key())
	assert.True(t, e.Stale)

	page, err = svc.List(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "p1", page.Products[0].ID)
	assert.Equal(t, 1, page.CurrentPage)
}
