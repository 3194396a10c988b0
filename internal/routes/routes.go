package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/auth"
	"github.com/hana-ti/home-planner/internal/authevents"
	"github.com/hana-ti/home-planner/internal/calculation"
	"github.com/hana-ti/home-planner/internal/calendar"
	"github.com/hana-ti/home-planner/internal/config"
	"github.com/hana-ti/home-planner/internal/couple"
	"github.com/hana-ti/home-planner/internal/identity"
	"github.com/hana-ti/home-planner/internal/invitation"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/loan"
	"github.com/hana-ti/home-planner/internal/middleware"
	"github.com/hana-ti/home-planner/internal/mydata"
	"github.com/hana-ti/home-planner/internal/notification"
	"github.com/hana-ti/home-planner/internal/savings"
	"github.com/hana-ti/home-planner/internal/scheduler"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// Mongo may be nil in development.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Mongo  *mongo.Database
	Broker *authevents.Broker
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. The returned
// scheduler drives the daily auto-debit jobs.
func Setup(app *fiber.App, d Deps) (*scheduler.Scheduler, error) {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Broker == nil {
		d.Broker = authevents.NewBroker(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID(d.Logger))
	// Plain text access line: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	s, err := buildServices(d)
	if err != nil {
		return nil, err
	}

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	jwt := middleware.JWTAuth(s.tokens, s.identityRepo)
	optional := middleware.OptionalJWT(s.tokens, s.identityRepo)
	admin := middleware.RequireAdmin(d.Cfg.AdminUserIDs)
	idem := func(c *fiber.Ctx) error { return c.Next() }
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	RegisterIdentityRoutes(api, jwt, identity.NewHandler(s.identity, s.signupHook()))
	RegisterAuthRoutes(api, auth.NewHandler(s.identity, s.tokens), middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttempts), jwt, authevents.NewHandler(d.Broker))
	RegisterCalculationRoutes(api, calculation.NewHandler(s.calculation), optional, jwt)
	RegisterSavingsRoutes(api, savings.NewHandler(s.savings), jwt, idem)
	RegisterLoanRoutes(api, loan.NewHandler(s.loans), jwt, idem, admin)

	protected := api.Group("", jwt)
	RegisterAccountRoutes(protected, account.NewHandler(s.accounts), idem)
	RegisterCalendarRoutes(protected, calendar.NewHandler(s.calendar))
	RegisterCoupleRoutes(protected, couple.NewHandler(s.couples))
	RegisterInvitationRoutes(protected, invitation.NewHandler(s.invitations))
	RegisterMyDataRoutes(protected, mydata.NewHandler(s.mydata))
	RegisterAdminRoutes(protected, scheduler.NewHandler(s.scheduler), admin)

	return s.scheduler, nil
}

type services struct {
	identityRepo identity.Repository
	identity     *identity.Service
	tokens       *auth.Service
	accounts     *account.Service
	savings      *savings.Service
	loans        *loan.Service
	calculation  *calculation.Service
	mydata       *mydata.Service
	calendar     *calendar.Service
	couples      *couple.Service
	invitations  *invitation.Service
	scheduler    *scheduler.Scheduler
}

// buildServices picks Postgres stores when a pool is configured and
// in-memory ones otherwise.
func buildServices(d Deps) (*services, error) {
	var (
		ledgerBackend  ledger.Ledger
		identityRepo   identity.Repository
		accountRepo    account.Repository
		savingsRepo    savings.Repository
		loanRepo       loan.Repository
		mydataRepo     mydata.Repository
		coupleRepo     couple.Repository
		invitationRepo invitation.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		savingsRepo = savings.NewPostgresRepository(d.DB)
		loanRepo = loan.NewPostgresRepository(d.DB)
		mydataRepo = mydata.NewPostgresRepository(d.DB)
		coupleRepo = couple.NewPostgresRepository(d.DB)
		invitationRepo = invitation.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		accountRepo = account.NewMemoryRepository()
		savingsRepo = savings.NewMemoryRepository(savings.DefaultProducts()...)
		loanRepo = loan.NewMemoryRepository(loan.DefaultProducts()...)
		mydataRepo = mydata.NewMemoryRepository()
		coupleRepo = couple.NewMemoryRepository()
		invitationRepo = invitation.NewMemoryRepository()
	}
	calendarRepo, err := calendarRepository(d)
	if err != nil {
		return nil, err
	}

	policy, err := calculation.LoadPolicy(d.Cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load lending policy: %w", err)
	}
	var calcCache calculation.Cache
	if d.Cache != nil {
		calcCache = calculation.NewRedisCache(d.Cache, d.Cfg.CalcCacheTTL)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	identitySvc := identity.NewService(identityRepo)
	accounts := account.NewService(accountRepo, ledgerBackend, notifier)
	savingsSvc := savings.NewService(savingsRepo, accounts)
	loans := loan.NewService(loanRepo, accounts, notifier)
	profiles := mydata.NewService(mydataRepo)
	couples := couple.NewService(coupleRepo, identitySvc, notifier, d.Cfg.InviteBaseURL, d.Cfg.CoupleInviteTTL)

	return &services{
		identityRepo: identityRepo,
		identity:     identitySvc,
		tokens:       auth.NewService(d.Cfg, identityRepo, d.Broker),
		accounts:     accounts,
		savings:      savingsSvc,
		loans:        loans,
		calculation:  calculation.NewService(calculation.NewCalculator(policy), profiles, couples, calcCache),
		mydata:       profiles,
		calendar:     calendar.NewService(calendarRepo, accounts, savingsSvc, loans),
		couples:      couples,
		invitations:  invitation.NewService(invitationRepo, accounts, notifier),
		scheduler: scheduler.New(d.Cfg.AutoDebitHour, map[string]scheduler.Job{
			"savings": savings.NewProcessor(savingsRepo, accounts, notifier),
			"loans":   loan.NewProcessor(loanRepo, accounts, notifier),
		}),
	}, nil
}

func calendarRepository(d Deps) (calendar.Repository, error) {
	switch d.Cfg.CalendarStore {
	case "mongo":
		if d.Mongo == nil {
			return nil, fmt.Errorf("calendar store mongo requires a mongo connection")
		}
		repo := calendar.NewMongoRepository(d.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "memory":
		return calendar.NewMemoryRepository(), nil
	}
	if d.DB != nil {
		return calendar.NewPostgresRepository(d.DB), nil
	}
	return calendar.NewMemoryRepository(), nil
}

// signupHook links a couple when the new user signed up through an invite link.
func (s *services) signupHook() identity.SignupHook {
	return func(ctx context.Context, userID, inviteToken string) {
		s.couples.AutoAccept(ctx, userID, inviteToken)
	}
}
