package app

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/auth"
	"github.com/Astonie/schoolyathu/config"
	"github.com/Astonie/schoolyathu/handlers"
	"github.com/Astonie/schoolyathu/internal/observability"
	"github.com/Astonie/schoolyathu/middleware"
	"github.com/Astonie/schoolyathu/repositories"
	"github.com/Astonie/schoolyathu/repositories/postgres"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/session"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB
	Redis    *redis.Client
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Schools    repositories.SchoolRepository
	Users      repositories.UserRepository
	Students   repositories.StudentRepository
	Classes    repositories.ClassRepository
	Guardians  repositories.GuardianRepository
	Attendance repositories.AttendanceRepository
	TxManager  repositories.TransactionManager

	// Sessions
	Tokens   *session.HMACTokens
	Resolver *session.Resolver

	// Services
	AuthService       *services.AuthService
	SchoolService     *services.SchoolService
	UserService       *services.UserService
	StudentService    *services.StudentService
	ClassService      *services.ClassService
	GuardianService   *services.GuardianService
	AttendanceService *services.AttendanceService

	// HTTP
	AuthMiddleware    *middleware.AuthMiddleware
	AuthHandler       *auth.Handler
	HealthHandler     *handlers.HealthHandler
	SchoolHandler     *handlers.SchoolHandler
	UserHandler       *handlers.UserHandler
	StudentHandler    *handlers.StudentHandler
	ClassHandler      *handlers.ClassHandler
	GuardianHandler   *handlers.GuardianHandler
	AttendanceHandler *handlers.AttendanceHandler
	DashboardHandler  *handlers.DashboardHandler
}

// NewDependencies opens the database and wires up all application
// dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires dependencies over an already opened
// repository factory.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Database.InitSchema {
		if err := deps.DB.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps.initRepositories()
	deps.initMetrics()

	if err := deps.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	if err := deps.initSessions(); err != nil {
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Schools = repos.Schools
	d.Users = repos.Users
	d.Students = repos.Students
	d.Classes = repos.Classes
	d.Guardians = repos.Guardians
	d.Attendance = repos.Attendance
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(d.DB.DB, "schoolyathu"),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initRedis connects the session blocklist store. Redis is optional;
// without it sign-out only clears the cookie.
func (d *Dependencies) initRedis(ctx context.Context) error {
	rc := d.Config.Redis
	if rc.Addr == "" {
		d.Logger.Warn("redis not configured, session revocation disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	d.Redis = client
	d.Logger.Info("redis connection established", zap.String("addr", rc.Addr))
	return nil
}

// initSessions builds the credential verifier. Locally issued HS256
// credentials and provider RS256 credentials are accepted side by side
// when both a secret and a key set URL are configured.
func (d *Dependencies) initSessions() error {
	ac := d.Config.Auth

	verifier := session.NewAlgorithmVerifier()
	if ac.JWTSecret != "" {
		tokens, err := session.NewHMACTokens(session.HMACConfig{
			Secret:   []byte(ac.JWTSecret),
			Issuer:   ac.Issuer,
			Audience: ac.Audience,
			TTL:      ac.TokenTTL,
			Leeway:   ac.Leeway,
		})
		if err != nil {
			return err
		}
		d.Tokens = tokens
		verifier.Register(jwt.SigningMethodHS256.Alg(), tokens)
	}

	if ac.JWKSURL != "" {
		verifier.Register(jwt.SigningMethodRS256.Alg(), session.NewJWKSVerifier(session.JWKSConfig{
			URL:         ac.JWKSURL,
			Issuer:      ac.Issuer,
			Audience:    ac.Audience,
			CacheTTL:    ac.JWKSCacheTTL,
			HTTPTimeout: ac.VerifyTimeout,
			Leeway:      ac.Leeway,
		}))
		d.Logger.Info("verifying credentials against external key set", zap.String("jwks_url", ac.JWKSURL))
	}

	if verifier.Len() == 0 {
		return fmt.Errorf("no credential verifier configured")
	}

	var blocklist session.Blocklist
	if d.Redis != nil {
		blocklist = session.NewRedisBlocklist(d.Redis, d.Config.Redis.KeyPrefix)
	}

	d.Resolver = session.NewResolver(verifier, blocklist, ac.VerifyTimeout, d.Logger)
	return nil
}

func (d *Dependencies) initServices() {
	var issuer services.TokenIssuer
	if d.Tokens != nil {
		issuer = d.Tokens
	} else {
		issuer = disabledIssuer{}
		d.Logger.Warn("no signing secret configured, password sign-in disabled")
	}

	d.AuthService = services.NewAuthService(d.Users, issuer, d.Resolver, d.Logger)
	d.SchoolService = services.NewSchoolService(d.Schools, d.Logger)
	d.UserService = services.NewUserService(d.Users, d.Logger)
	d.StudentService = services.NewStudentService(d.Students, d.Logger)
	d.ClassService = services.NewClassService(d.Classes, d.Users, d.Logger)
	d.GuardianService = services.NewGuardianService(d.Guardians, d.Users, d.Students, d.TxManager, d.Logger)
	d.AttendanceService = services.NewAttendanceService(d.Students, d.Attendance, d.TxManager, d.Logger).
		WithGuardians(d.Guardians)
}

func (d *Dependencies) initHandlers() {
	ac := d.Config.Auth

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Resolver, d.Metrics, d.Logger).
		WithCookieName(ac.CookieName)
	d.AuthHandler = auth.NewHandler(d.AuthService, d.Resolver, auth.CookieConfig{
		Name:   ac.CookieName,
		Secure: ac.CookieSecure,
	}, d.Logger)

	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
	if d.Redis != nil {
		d.HealthHandler.WithRedis(d.Redis)
	}
	d.SchoolHandler = handlers.NewSchoolHandler(d.SchoolService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Logger)
	d.StudentHandler = handlers.NewStudentHandler(d.StudentService, d.Logger)
	d.ClassHandler = handlers.NewClassHandler(d.ClassService, d.Logger)
	d.GuardianHandler = handlers.NewGuardianHandler(d.GuardianService, d.Logger)
	d.AttendanceHandler = handlers.NewAttendanceHandler(d.AttendanceService, d.Logger)
	d.DashboardHandler = handlers.NewDashboardHandler(d.Logger)

	d.Logger.Info("handlers initialized")
}

// disabledIssuer refuses to sign credentials when sign-in is delegated to
// an external identity provider.
type disabledIssuer struct{}

func (disabledIssuer) Issue(session.Subject) (string, *session.Claims, error) {
	return "", nil, fmt.Errorf("credential issuing not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
		d.Redis = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
