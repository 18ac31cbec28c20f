package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/adapters/authprovider"
	"github.com/legacy-registry/profile-api/internal/adapters/gcs"
	"github.com/legacy-registry/profile-api/internal/adapters/genai"
	"github.com/legacy-registry/profile-api/internal/adapters/httpapi"
	memidempotency "github.com/legacy-registry/profile-api/internal/adapters/memory/idempotency"
	memmediastore "github.com/legacy-registry/profile-api/internal/adapters/memory/mediastore"
	memnominationrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/nominationrepo"
	memorderrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/orderrepo"
	mempaymentgateway "github.com/legacy-registry/profile-api/internal/adapters/memory/paymentgateway"
	memprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/memory/profilerepo"
	memquota "github.com/legacy-registry/profile-api/internal/adapters/memory/quota"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	postgres "github.com/legacy-registry/profile-api/internal/adapters/postgres"
	pgidempotency "github.com/legacy-registry/profile-api/internal/adapters/postgres/idempotency"
	pgnominationrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/nominationrepo"
	pgorderrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/orderrepo"
	pgprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/profilerepo"
	pguserrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/userrepo"
	"github.com/legacy-registry/profile-api/internal/adapters/razorpay"
	redisadapter "github.com/legacy-registry/profile-api/internal/adapters/redis"
	"github.com/legacy-registry/profile-api/internal/app/aipolish"
	"github.com/legacy-registry/profile-api/internal/app/media"
	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/legacy-registry/profile-api/internal/platform/clock"
	"github.com/legacy-registry/profile-api/internal/platform/config"
	"github.com/legacy-registry/profile-api/internal/platform/logging"
	"github.com/legacy-registry/profile-api/internal/platform/metrics"
	authproviderport "github.com/legacy-registry/profile-api/internal/ports/out/authprovider"
	idempotencyport "github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
	mediastoreport "github.com/legacy-registry/profile-api/internal/ports/out/mediastore"
	nominationrepoport "github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
	orderrepoport "github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	paymentgatewayport "github.com/legacy-registry/profile-api/internal/ports/out/paymentgateway"
	polisherport "github.com/legacy-registry/profile-api/internal/ports/out/polisher"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	quotaport "github.com/legacy-registry/profile-api/internal/ports/out/quota"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := platformclock.NewSystemClock()

	// Auth configuration:
	// - Production: require JWT_* env vars and enforce bearer auth
	// - Local dev: set AUTH_MODE=dev to bypass JWT verification and use X-Debug-Subject
	var authMW func(http.Handler) http.Handler
	authIssuer := ""
	switch cfg.AuthMode {
	case "dev":
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
		authIssuer = cfg.DevIssuer
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			return fmt.Errorf("invalid auth config: %w", err)
		}
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(jwtCfg))
		authIssuer = jwtCfg.Issuer
	}

	var (
		userRepo       userrepoport.Repository
		profileRepo    profilerepoport.Repository
		orderRepo      orderrepoport.Repository
		nominationRepo nominationrepoport.Repository
		idemStore      idempotencyport.Store
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
		defer pool.Close()
		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
		}
		userRepo = pguserrepo.NewRepo(pool, authIssuer)
		profileRepo = pgprofilerepo.NewRepo(pool)
		orderRepo = pgorderrepo.NewRepo(pool)
		nominationRepo = pgnominationrepo.NewRepo(pool)
		pgIdem := pgidempotency.NewStore(pool, authIssuer, clk)
		go sweepIdempotencyKeys(ctx, pgIdem, time.Hour, logger)
		idemStore = pgIdem
	default:
		userRepo = memuserrepo.NewRepo()
		profileRepo = memprofilerepo.NewRepo()
		orderRepo = memorderrepo.NewRepo()
		nominationRepo = memnominationrepo.NewRepo()
		idemStore = memidempotency.NewStore(clk)
	}

	var counter quotaport.Counter
	if len(cfg.RedisAddrs) > 0 {
		rdb, err := redisadapter.NewClient(ctx, redisadapter.Options{Addrs: cfg.RedisAddrs, Password: cfg.RedisPassword})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		counter = redisadapter.NewCounter(rdb, "profile-api")
	} else {
		counter = memquota.NewCounter(clk)
	}

	var polisher polisherport.Polisher
	if cfg.GeminiAPIKey != "" {
		p, err := genai.NewPolisher(ctx, genai.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, logger)
		if err != nil {
			return err
		}
		polisher = p
	} else {
		logger.Warn("GEMINI_API_KEY not set; AI polish disabled")
	}

	var gateway paymentgatewayport.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = razorpay.NewClient(razorpay.Config{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
		}, logger)
	} else {
		if !cfg.IsDevelopment() {
			return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required in production")
		}
		logger.Warn("razorpay keys not set; using in-process payment gateway")
		gateway = mempaymentgateway.NewGateway("rzp_dev", "dev-secret")
	}

	var store mediastoreport.Store
	switch cfg.MediaBackend {
	case "gcs":
		s, err := gcs.NewStore(ctx, gcs.Config{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			PublicBaseURL:   cfg.MediaPublicBaseURL,
		}, logger)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	default:
		store = memmediastore.NewStore(cfg.MediaPublicBaseURL)
	}

	var authProvider authproviderport.Provider
	if cfg.AuthProviderURL != "" {
		authProvider = authprovider.NewHTTPProvider(authprovider.Config{
			BaseURL: cfg.AuthProviderURL,
			APIKey:  cfg.AuthProviderAPIKey,
		}, clk, logger)
	} else {
		authProvider = authprovider.NewDevProvider(clk)
	}

	slugPolicy, err := profiles.ParseSlugPolicy(cfg.SlugPolicy)
	if err != nil {
		return err
	}
	tierEnforcement, err := profiles.ParseTierEnforcement(cfg.TierEnforcement)
	if err != nil {
		return err
	}

	usersSvc := users.NewService(userRepo, clk)
	if len(cfg.AdminSubjects) > 0 {
		usersSvc.AdminSubjects = make(map[domain.SubjectID]bool, len(cfg.AdminSubjects))
		for _, s := range cfg.AdminSubjects {
			usersSvc.AdminSubjects[domain.SubjectID(s)] = true
		}
	}
	profilesSvc := profiles.NewService(profileRepo, usersSvc, content.NewValidator(clk), clk, profiles.Config{
		SlugPolicy:      slugPolicy,
		TierEnforcement: tierEnforcement,
	})

	api := httpapi.NewServer(httpapi.Services{
		Users:       usersSvc,
		Profiles:    profilesSvc,
		Payments:    payments.NewService(profileRepo, orderRepo, usersSvc, profilesSvc, gateway, clk, payments.Config{Currency: cfg.PaymentCurrency}),
		AIPolish:    aipolish.NewService(profileRepo, usersSvc, polisher, counter, clk),
		Media:       media.NewService(store, usersSvc, media.Config{MaxBytes: cfg.MediaMaxBytes}),
		Nominations: nominations.NewService(nominationRepo, clk),
		Auth:        authProvider,
		Idem:        idemStore,
		Clock:       clk,
	}, logger, m, httpapi.CookieOptions{Secure: cfg.CookieSecure})

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Logger:         logger,
		Metrics:        m,
		Gatherer:       reg,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		NominationLimiter: &httpapi.RateLimiter{
			Name:    "nominations",
			Counter: counter,
			Limit:   int64(cfg.NominationRateLimit),
			Window:  cfg.NominationRateWindow,
			Clock:   clk,
			Logger:  logger,
			Metrics: m,
		},
		RequestTimeout: 60 * time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("auth_mode", cfg.AuthMode),
			zap.String("storage", cfg.StorageBackend),
			zap.String("media", cfg.MediaBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepIdempotencyKeys deletes expired replay records until ctx ends.
func sweepIdempotencyKeys(ctx context.Context, store *pgidempotency.Store, every time.Duration, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("idempotency sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("idempotency sweep", zap.Int64("deleted", n))
			}
		}
	}
}
