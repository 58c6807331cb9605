package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/attachment"
	"github.com/etendosoftware/workspace-gateway/internal/auth/blacklist"
	"github.com/etendosoftware/workspace-gateway/internal/auth/password"
	"github.com/etendosoftware/workspace-gateway/internal/auth/token"
	"github.com/etendosoftware/workspace-gateway/internal/cachestore"
	"github.com/etendosoftware/workspace-gateway/internal/config"
	"github.com/etendosoftware/workspace-gateway/internal/debuglog"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	redisx "github.com/etendosoftware/workspace-gateway/internal/infra/cache/redis"
	"github.com/etendosoftware/workspace-gateway/internal/infra/database/postgres"
	s3storage "github.com/etendosoftware/workspace-gateway/internal/infra/storage/s3"
	"github.com/etendosoftware/workspace-gateway/internal/logging"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/process"
	"github.com/etendosoftware/workspace-gateway/internal/recent"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web"
)

type App struct {
	config  *config.Config
	server  *web.Server
	log     *zap.Logger
	meta    *metadata.Client
	watcher *process.Watcher
	cache   *redisx.Cache
	repo    *postgres.PGRepo
}

// Build wires every component from the environment. Redis, Postgres and S3
// are optional: without them the gateway keeps its state in memory and
// serves downloads straight from the ERP.
func Build(ctx context.Context) (*App, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return nil, fmt.Errorf("failed init logger: %w", err)
	}
	base = base.Named("app")
	base.Info("configuration" + cfg.String())

	a := &App{config: cfg, log: base}
	deps := web.Deps{BaseURL: cfg.ERPBaseURL(), ERPCacheTTL: cfg.ERPCacheTTL, DebugPasswordHash: cfg.DebugPasswordHash}

	var storeOpts []cachestore.Option
	if cfg.HasRedis() {
		base.Info("init Redis")
		rc := redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, base.Named("redis"))
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		a.cache = rc
		deps.Cache = rc
		deps.Auth.Blacklist = blacklist.NewStore(rc)
		storeLog := base.Named("cachestore")
		storeOpts = append(storeOpts,
			cachestore.WithPersister(rc),
			cachestore.WithErrorHook(func(op, key string, err error) {
				storeLog.Warn("persist failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
			}),
		)
		base.Info("Redis is initialized")
	} else {
		deps.Auth.Blacklist = blacklist.NewLocal()
	}

	sessions := session.NewStore(append([]cachestore.Option{cachestore.WithPrefix("erpsession:")}, storeOpts...)...)
	deps.Sessions = sessions
	deps.Selections = session.NewSelections(cfg.CacheDuration, append([]cachestore.Option{cachestore.WithPrefix("selection:")}, storeOpts...)...)

	erpOpts := []erp.Option{erp.WithSessions(sessions), erp.WithLogger(base.Named("erp"))}
	if cfg.DebugERPRequests {
		deps.DebugLog = debuglog.New()
		erpOpts = append(erpOpts, erp.WithObserver(deps.DebugLog.Observe))
		base.Warn("ERP request capture is enabled")
	}
	ec := erp.New(cfg.ERPBaseURL(), erpOpts...)
	deps.ERP = ec

	metaOpts := []metadata.Option{metadata.WithLogger(base.Named("metadata")), metadata.WithStoreOptions(storeOpts...)}
	if deps.Cache != nil {
		metaOpts = append(metaOpts,
			metadata.WithSharedCache(deps.Cache),
			metadata.WithDatasourceCaching(cfg.CachedEntities(), cfg.CacheDuration),
		)
	}
	a.meta = metadata.New(ec, cfg.CacheDuration, metaOpts...)
	deps.Meta = a.meta

	base.Info("init process registry")
	catalog, err := process.NewCatalog(base.Named("process"))
	if err != nil {
		return nil, fmt.Errorf("failed load process catalog: %w", err)
	}
	if cfg.ProcessDefinitions != "" {
		a.watcher = process.NewWatcher(catalog, cfg.ProcessDefinitions, base.Named("process"))
	}
	reg := process.NewRegistry()
	reg.Register(process.KernelName, process.NewKernel(ec))
	reg.Register(process.ManualName, process.NewManual(catalog, ec))
	deps.Processes = reg

	if cfg.HasPostgres() {
		base.Info("init PostgreSQL")
		pgRepo, err := postgres.NewPGRepo(ctx, base.Named("postgres"), cfg.GetDSN(), cfg.DBScheme)
		if err != nil {
			return nil, fmt.Errorf("failed init postgres: %w", err)
		}
		a.repo = pgRepo
		deps.Recent = pgRepo
		deps.DB = pgRepo
		base.Info("PostgreSQL is initialized")
	} else {
		deps.Recent = recent.NewMemory()
	}

	var mirror attachment.Mirror
	if cfg.HasS3() {
		base.Info("init S3 storage")
		s3, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}, base.Named("s3"))
		if err != nil {
			return nil, fmt.Errorf("failed init s3: %w", err)
		}
		mirror = s3
		deps.Storage = s3
		base.Info("S3 storage is initialized")
	}
	deps.Attachments = attachment.New(ec, mirror, base.Named("attachments"))

	deps.Auth.Tokens = token.NewParser(cfg.AuthJWTSecret)
	deps.Auth.Verifier = password.NewDefault()
	if cfg.DebugPasswordHash != "" {
		if err := password.Check(cfg.DebugPasswordHash); err != nil {
			return nil, fmt.Errorf("DEBUG_PASSWORD_HASH: %w", err)
		}
	}

	base.Info("init Server")
	a.server = web.New(base.Named("server"), cfg, deps)
	base.Info("build ended")
	return a, nil
}

// Metadata exposes the metadata client to offline commands.
func (a *App) Metadata() *metadata.Client { return a.meta }

func (a *App) Logger() *zap.Logger { return a.log }

func (a *App) Run(ctx context.Context) error {
	a.log.Info("start application")
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch process definitions: %w", err)
		}
	}
	go a.server.Run()
	<-ctx.Done()
	a.log.Info("stop application")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.Close()
	return nil
}

// Close releases the backends. Safe to call when Run was never started.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.repo != nil {
		a.repo.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	_ = a.log.Sync()
}
