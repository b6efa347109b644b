package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/config"
	"github.com/worstlover/telegrambot/internal/domain/enums"
	"github.com/worstlover/telegrambot/internal/infra/metrics"
	tginfra "github.com/worstlover/telegrambot/internal/infra/telegram"
	pgrepo "github.com/worstlover/telegrambot/internal/repo/postgres"
	redisrepo "github.com/worstlover/telegrambot/internal/repo/redis"
	approvalsvc "github.com/worstlover/telegrambot/internal/services/approval"
	identitysvc "github.com/worstlover/telegrambot/internal/services/identity"
	pipelinesvc "github.com/worstlover/telegrambot/internal/services/pipeline"
	policysvc "github.com/worstlover/telegrambot/internal/services/policy"
	"github.com/worstlover/telegrambot/internal/services/profanity"
	rategatesvc "github.com/worstlover/telegrambot/internal/services/rategate"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot
	server   *http.Server

	identity *identitysvc.Service
	policy   *policysvc.Service
	approval *approvalsvc.Service
	pipeline *pipelinesvc.Service

	sessions *sessionStore
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	redisClient, err := redisrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Channel.ID)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	userRepo := pgrepo.NewUserRepo(pool)
	settingsRepo := pgrepo.NewSettingsRepo(pool)
	adminRepo := pgrepo.NewAdminRepo(pool)
	wordsRepo := pgrepo.NewBannedWordsRepo(pool)
	pendingRepo := pgrepo.NewPendingRepo(pool)
	logRepo := pgrepo.NewMessageLogRepo(pool)
	cooldownRepo := redisrepo.NewCooldownRepo(redisClient)

	policyService := policysvc.NewService(settingsRepo, adminRepo, wordsRepo, logger)
	if err := policyService.Init(ctx, cfg.Moderation.SeedWords); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init policy store: %w", err)
	}
	if cfg.Moderation.InitialAdmin > 0 {
		if err := policyService.AddAdmin(ctx, cfg.Moderation.InitialAdmin, cfg.Moderation.InitialAdmin); err != nil {
			logger.Warn("seed initial admin", zap.Error(err))
		}
	}

	filter := profanity.NewFilter(policyService, logger)
	identityService := identitysvc.NewService(userRepo, cfg.Moderation.NamePrefix, logger)
	rateGate := rategatesvc.NewService(cooldownRepo, policyService, logger)

	notifier := &userNotifier{bot: bot, channelUsername: cfg.Channel.Username, logger: logger}
	approvalService := approvalsvc.NewService(
		pendingRepo, bot, notifier, identityService, filter, logRepo,
		cfg.Channel.Username, logger)

	pipelineService := pipelinesvc.NewService(pipelinesvc.Config{
		Identities:      identityService,
		RateGate:        rateGate,
		Settings:        policyService,
		Profanity:       filter,
		Publisher:       bot,
		Queue:           approvalService,
		AdminNotifier:   &adminNotifier{bot: bot},
		Admins:          policyService,
		Logbook:         logRepo,
		ChannelUsername: cfg.Channel.Username,
		Logger:          logger,
	})

	router := chi.NewRouter()
	ApplyMiddlewares(router, logger)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		redis:    redisClient,
		bot:      bot,
		server:   server,
		identity: identityService,
		policy:   policyService,
		approval: approvalService,
		pipeline: pipelineService,
		sessions: newSessionStore(),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("relay bot started",
		zap.Int64("channel_id", a.cfg.Channel.ID),
		zap.String("http_addr", a.cfg.HTTP.Addr))

	errCh := make(chan error, 2)

	go func() {
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	go func() {
		errCh <- a.bot.Listen(ctx, tginfra.Handlers{
			OnCommand:  a.handleCommand,
			OnText:     a.handleText,
			OnMedia:    a.handleMedia,
			OnCallback: a.handleCallback,
		})
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("relay bot stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

// userNotifier delivers decision outcomes to submitters. Failures are
// logged only; a deaf user must not undo an admin decision.
type userNotifier struct {
	bot             *tginfra.Bot
	channelUsername string
	logger          *zap.Logger
}

func (n *userNotifier) NotifyApproved(ctx context.Context, userTelegramID int64) {
	if err := n.bot.SendTextWithChannelLink(ctx, userTelegramID, msgApproved, n.channelUsername); err != nil {
		n.logger.Warn("notify approval", zap.Int64("telegram_id", userTelegramID), zap.Error(err))
	}
}

func (n *userNotifier) NotifyRejected(ctx context.Context, userTelegramID int64, reason string) {
	if err := n.bot.SendText(ctx, userTelegramID, msgRejected(reason)); err != nil {
		n.logger.Warn("notify rejection", zap.Int64("telegram_id", userTelegramID), zap.Error(err))
	}
}

// adminNotifier turns a queued item into a review request with
// approve/reject buttons.
type adminNotifier struct {
	bot *tginfra.Bot
}

func (n *adminNotifier) RequestApproval(ctx context.Context, adminTelegramID, pendingID int64, kind enums.ContentKind, _, caption, displayName string) error {
	text := msgReviewRequest(displayName, string(kind), caption, pendingID)
	return n.bot.RequestApproval(ctx, adminTelegramID, pendingID, text)
}
