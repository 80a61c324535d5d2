package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/blockdates"
	"github.com/velourdrapes/backoffice/internal/catalog"
	"github.com/velourdrapes/backoffice/internal/config"
	"github.com/velourdrapes/backoffice/internal/logging"
	"github.com/velourdrapes/backoffice/internal/media"
	"github.com/velourdrapes/backoffice/internal/mutation"
	"github.com/velourdrapes/backoffice/internal/notice"
	"github.com/velourdrapes/backoffice/internal/retry"
	"github.com/velourdrapes/backoffice/internal/session"
	"github.com/velourdrapes/backoffice/internal/state"
	"github.com/velourdrapes/backoffice/internal/ui"
	"github.com/velourdrapes/backoffice/internal/website"
)

// Options configure the backoffice application.
type Options struct {
	ConfigPath string
	PollEvery  int    // seconds; zero uses the configured interval
	LogLevel   string // overrides the configured level when set
}

const (
	mutationRetries = 2
	readRetries     = 1
	noticeLimit     = 4
)

// Services bundles everything the console drives.
type Services struct {
	Client   *api.Client
	Cache    *state.Cache
	Catalog  *catalog.Service
	Calendar *blockdates.Manager
	Website  *website.Service
	Notices  *notice.Board
}

// NewServices wires the API client, cache, mutation coordinator and domain
// services for cfg.
func NewServices(cfg config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger.Named("api")))
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	cache := state.NewCache(state.WithLogger(logger.Named("cache")))
	coord := mutation.New(cache,
		mutation.WithRetry(retry.Policy{Retries: mutationRetries, Delay: cfg.RetryDelay, Retryable: api.IsTransport}),
		mutation.WithLogger(logger.Named("mutation")))
	notices := notice.NewBoard(noticeLimit, nil)
	preparer := media.Preparer{MaxDimension: cfg.MaxUploadDimension, Quality: media.DefaultQuality}

	return &Services{
		Client: client,
		Cache:  cache,
		Catalog: catalog.NewService(client, cache, coord,
			catalog.WithTaxonomy(catalog.NewTaxonomy(cfg.Categories)),
			catalog.WithPreparer(preparer),
			catalog.WithReadRetry(retry.Policy{Retries: readRetries, Delay: cfg.RetryDelay}),
			catalog.WithLogger(logger.Named("catalog"))),
		Calendar: blockdates.NewManager(client, cache, coord,
			blockdates.WithNotifier(notices),
			blockdates.WithLogger(logger.Named("blockdates"))),
		Website: website.NewService(client, cache, coord,
			website.WithPreparer(preparer),
			website.WithLogger(logger.Named("website"))),
		Notices: notices,
	}, nil
}

// Run boots the backoffice console until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, closeLog, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	sess, err := session.Load(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	svc, err := NewServices(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("backoffice starting",
		zap.String("api", svc.Client.BaseURL()),
		zap.Bool("session", sess.LoggedIn()))

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// Start background revalidation
	StartPoller(ctx, svc.Cache, interval, logger.Named("poller"))

	err = ui.Run(ui.Options{
		Context:     ctx,
		Cache:       svc.Cache,
		Catalog:     svc.Catalog,
		Calendar:    svc.Calendar,
		Website:     svc.Website,
		Notices:     svc.Notices,
		Auth:        svc.Client,
		Session:     sess,
		SessionPath: cfg.SessionPath,
		ThemeName:   cfg.Theme,
		Logger:      logger.Named("ui"),
	})
	logger.Info("backoffice stopped", zap.Error(err))
	return err
}
