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

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/config"
	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/handler"
	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/blogicum/blogicum/web"
	"github.com/spf13/pflag"
)

func main() {
	// --- Configuration Loading ---
	flags := config.Flags(os.Args[0])
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Failed to parse flags: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Database Initialization and Migration ---
	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db, cfg.DB.Driver, cfg.DB.DSN); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	sessionManager := scs.New()
	if data.IsSQLite(cfg.DB.Driver) {
		sessionManager.Store = sqlite3store.New(db.DB)
	} else {
		sessionManager.Store = mysqlstore.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	authenticator, err := auth.NewAuthenticator(context.Background(), cfg.OIDC)
	if err != nil {
		log.Fatal(err, "Failed to initialize authenticator")
	}
	if authenticator == nil {
		log.Info("OIDC is not configured; only local accounts can log in.")
	}
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)

	// --- View Template Initialization ---
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}

	// --- Dependency Injection and Handler Initialization ---
	users := data.NewUserRepository(db)
	blogService := service.NewBlogService(
		data.NewPostRepository(db),
		data.NewCommentRepository(db),
		users,
		data.NewCategoryRepository(db),
		data.NewLocationRepository(db),
		cfg.Blog.PageSize,
	)
	accountService := service.NewAccountService(users)

	handlers := handler.Handlers{
		Posts:    handler.NewPostHandler(blogService, viewService, log),
		Comments: handler.NewCommentHandler(blogService, viewService, log),
		Profiles: handler.NewProfileHandler(blogService, accountService, viewService, log),
		Pages:    handler.NewPagesHandler(viewService, log),
		Auth:     handler.NewAuthHandler(authenticator, sessionManager, accountService, viewService, log),
		Seo:      handler.NewSeoHandler(blogService, cfg.Server.BaseURL, log),
	}
	authzMiddleware := middleware.Authorizer(enforcer, sessionManager, log, viewService)
	csrfMiddleware := middleware.CSRF(log, viewService, cfg.Server.TLS.Enabled)
	errorMiddleware := middleware.Error(log, viewService)

	// --- Router Setup ---
	router := handler.NewRouter(handlers, web.StaticFS, authzMiddleware, csrfMiddleware, errorMiddleware, sessionManager)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
