package website

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/state"
)

// Key is the cache key of a section's content.
func Key(s Section) state.Key {
	return state.Key{"website", string(s)}
}

// Service loads and saves website sections.
type Service struct {
	remote   api.Remote
	cache    state.Querier
	coord    *mutation.Coordinator
	preparer media.Preparer
	logger   *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPreparer sets how uploads are prepared.
func WithPreparer(p media.Preparer) Option {
	return func(s *Service) { s.preparer = p }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires the website service.
func NewService(remote api.Remote, cache state.Querier, coord *mutation.Coordinator, opts ...Option) *Service {
	s := &Service{
		remote:   remote,
		cache:    cache,
		coord:    coord,
		preparer: media.Preparer{MaxDimension: media.DefaultMaxDimension},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns a section's content, reading through the cache.
func (s *Service) Load(ctx context.Context, sec Section) (Content, error) {
	return state.FetchAs(ctx, s.cache, Key(sec), func(ctx context.Context) (Content, error) {
		c, err := newContent(sec)
		if err != nil {
			return nil, err
		}
		if err := s.remote.GetSection(ctx, string(sec), c); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Edit loads a section into a fresh draft.
func (s *Service) Edit(ctx context.Context, sec Section) (*Draft, error) {
	c, err := s.Load(ctx, sec)
	if err != nil {
		return nil, err
	}
	return NewDraft(c), nil
}

// Save submits a dirty draft as one multipart request and invalidates the
// section. A clean draft is not sent. Our Story falls back to POST when the
// server refuses the PUT.
func (s *Service) Save(ctx context.Context, d *Draft) error {
	if !d.Dirty() {
		return nil
	}
	form, err := d.Form(s.preparer)
	if err != nil {
		return err
	}
	sec := d.Section()
	spec := mutation.Spec[*api.Form, struct{}]{
		Name: "save " + string(sec),
		Keys: []state.Key{Key(sec)},
		Invoke: func(ctx context.Context, form *api.Form) (struct{}, error) {
			err := s.remote.SaveSection(ctx, http.MethodPut, string(sec), form, nil)
			if err != nil && sec == OurStory && !api.IsTransport(err) {
				s.logger.Info("section PUT refused, retrying with POST", zap.String("section", string(sec)), zap.Error(err))
				err = s.remote.SaveSection(ctx, http.MethodPost, string(sec), form, nil)
			}
			return struct{}{}, err
		},
		Settle: []state.Key{Key(sec)},
	}
	if _, err := mutation.Run(ctx, s.coord, spec, form); err != nil {
		return err
	}
	d.MarkClean()
	s.logger.Info("section saved", zap.String("section", string(sec)))
	return nil
}
