package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/hongbao/internal/adapter/http"
	"github.com/iho/hongbao/internal/adapter/http/handler"
	"github.com/iho/hongbao/internal/adapter/http/middleware"
	"github.com/iho/hongbao/internal/adapter/notifier"
	"github.com/iho/hongbao/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/hongbao/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/hongbao/internal/adapter/repository/redis"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/auth"
	"github.com/iho/hongbao/internal/infrastructure/config"
	"github.com/iho/hongbao/internal/infrastructure/eventpublisher"
	"github.com/iho/hongbao/internal/infrastructure/lock"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
	"github.com/iho/hongbao/internal/infrastructure/postgres"
	"github.com/iho/hongbao/internal/infrastructure/redis"
	"github.com/iho/hongbao/internal/infrastructure/sweeper"
	"github.com/iho/hongbao/internal/usecase"
)

// app is the wired process: the HTTP handler plus its background workers.
type app struct {
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	sweeper   *sweeper.Sweeper
	limiter   *middleware.RateLimiter
	guard     *notifier.Guarded
	closers   []func()
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is one backend's set of repositories.
type storage struct {
	tx        usecase.TransactionManager
	envelopes usecase.EnvelopeRepository
	claims    usecase.ClaimRepository
	balances  usecase.BalanceRepository
	ledger    usecase.LedgerRepository
	tokens    usecase.TokenRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	checks    []handler.Check
	close     func()
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg)

	store, err := buildStorage(ctx, cfg, m, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		store.checks = append(store.checks, handler.Check{Name: "redis", Ping: redis.Ping(redisClient)})
		logger.Info().Msg("connected to redis")
	}

	gateway, err := buildNotifier(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.guard = gateway

	idGen := postgresRepo.NewULIDGenerator()
	balanceUC := usecase.NewBalanceUseCase(store.tx, store.balances, store.ledger, store.tokens, idGen, m)

	envelopeCfg := usecase.EnvelopeUseCaseConfig{
		TxManager:    store.tx,
		EnvelopeRepo: store.envelopes,
		ClaimRepo:    store.claims,
		OutboxRepo:   store.outbox,
		TokenRepo:    store.tokens,
		Balances:     balanceUC,
		Allocator:    domain.NewSplitAllocator(domain.NewSecureSource()),
		IDGen:        idGen,
		Retrier:      store.retrier,
		Locker:       buildLocker(cfg, redisClient),
		Limits: domain.Limits{
			MinShares: cfg.EnvelopeMinShares,
			MaxShares: cfg.EnvelopeMaxShares,
			MaxTotal:  cfg.EnvelopeMaxTotal,
		},
		TTL:     cfg.EnvelopeTTL,
		Metrics: m,
		Logger:  logger,
	}
	if redisClient != nil {
		envelopeCfg.Cache = redisRepo.NewCache(redisClient)
	}
	envelopeUC := usecase.NewEnvelopeUseCase(envelopeCfg)
	rankingUC := usecase.NewRankingUseCase(store.envelopes, store.claims)
	relayUC := usecase.NewRelayUseCase(rankingUC, envelopeUC, m)
	reconUC := usecase.NewReconciliationUseCase(store.balances, store.ledger, store.envelopes, store.claims, store.tokens, m)
	notificationUC := usecase.NewNotificationUseCase(usecase.NotificationUseCaseConfig{
		Gateway:   gateway,
		TokenRepo: store.tokens,
		Rankings:  rankingUC,
		Metrics:   m,
		Logger:    logger,
	})

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Deliverer:  notificationUC,
		Metrics:    m,
		Logger:     logger,
		BatchSize:  cfg.NotifyBatchSize,
		Interval:   cfg.NotifyInterval,
		Retention:  cfg.OutboxRetention,
	})
	a.sweeper = sweeper.New(sweeper.Config{
		Expirer:  envelopeUC,
		Logger:   logger,
		Interval: cfg.SweepInterval,
	})
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)

	var idempotencyStore usecase.IdempotencyStore = memory.NewIdempotencyStore()
	if redisClient != nil {
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EnvelopeHandler:    handler.NewEnvelopeHandler(envelopeUC, rankingUC, relayUC),
		BalanceHandler:     handler.NewBalanceHandler(balanceUC),
		AdminHandler:       handler.NewAdminHandler(balanceUC, reconUC),
		HealthHandler:      handler.NewHealthHandler(store.checks...),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager,
		RateLimiter:        a.limiter,
		HTTPMetrics:        middleware.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	})

	return a, nil
}

func buildStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*storage, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage; balances are lost on restart")
		s := memory.NewStore()
		return &storage{
			tx:        s,
			envelopes: memory.NewEnvelopeRepository(s),
			claims:    memory.NewClaimRepository(s),
			balances:  memory.NewBalanceRepository(s),
			ledger:    memory.NewLedgerRepository(s),
			tokens:    memory.NewTokenRepository(s),
			outbox:    memory.NewOutboxRepository(s),
			close:     func() {},
		}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	policy := postgresRepo.DefaultRetryPolicy()
	policy.MaxRetries = cfg.DatabaseMaxRetries

	return &storage{
		tx:        postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout),
		envelopes: postgresRepo.NewEnvelopeRepository(pool),
		claims:    postgresRepo.NewClaimRepository(pool),
		balances:  postgresRepo.NewBalanceRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		tokens:    postgresRepo.NewTokenRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier(policy, m.StorageRetries, logger),
		checks:    []handler.Check{{Name: "postgres", Ping: pool.Ping}},
		close:     pool.Close,
	}, nil
}

// buildLocker picks the per-envelope claim lock. The redis locker is only
// valid when a client exists; config validation enforces that.
func buildLocker(cfg *config.Config, client *goredis.Client) usecase.Locker {
	if cfg.LockBackend == config.LockRedis && client != nil {
		return redisRepo.NewLocker(client, redisRepo.DefaultLockOptions())
	}
	return lock.NewKeyedLocker()
}

func buildNotifier(cfg *config.Config, logger zerolog.Logger) (*notifier.Guarded, error) {
	var gateway usecase.NotificationGateway
	switch cfg.Notifier {
	case config.NotifierDiscord:
		discord, err := notifier.NewDiscordGateway(cfg.DiscordToken)
		if err != nil {
			return nil, err
		}
		gateway = discord
	default:
		gateway = notifier.NewLogGateway(logger)
	}

	return notifier.NewGuarded(gateway, notifier.GuardConfig{
		RatePerSecond: cfg.NotifyRatePerSecond,
		Burst:         1,
		Logger:        logger,
	}), nil
}
