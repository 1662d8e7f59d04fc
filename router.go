package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arunvm123/eventease/cache"
	"github.com/arunvm123/eventease/cache/memory"
	"github.com/arunvm123/eventease/cache/redis"
	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/publisher"
	"github.com/arunvm123/eventease/publisher/kafka"
	"github.com/arunvm123/eventease/repository"
	memstore "github.com/arunvm123/eventease/repository/memory"
	"github.com/arunvm123/eventease/repository/postgres"
	"github.com/arunvm123/eventease/service"
	"github.com/arunvm123/eventease/storage"
	"github.com/arunvm123/eventease/storage/cloudinary"
	"github.com/arunvm123/eventease/storage/local"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies are the process-wide collaborators resolved at startup
type Dependencies struct {
	Store     repository.Store
	Cache     cache.CacheRepository
	Blobs     storage.BlobStore
	Publisher publisher.BookingPublisher

	// LocalUploadDir is served under cfg.Upload.PublicURL when set
	LocalUploadDir string
}

// NewDependencies connects the store, flash cache, blob store and publisher
// selected by cfg.
func NewDependencies(cfg *config.Config, log *logrus.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		deps.Store = memstore.NewStore()
	case config.DriverPostgres:
		store, err := postgres.NewStore(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		deps.Store = store
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.Enabled {
		redisCache, err := redis.NewRedisCacheRepository(cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TLSConfig())
		if err != nil {
			return nil, err
		}
		deps.Cache = redisCache
	} else {
		deps.Cache = memory.NewCacheRepository()
	}

	if cfg.Cloudinary.Enabled() {
		blobs, err := cloudinary.NewStore(&cfg.Cloudinary)
		if err != nil {
			return nil, err
		}
		deps.Blobs = blobs
	} else {
		log.WithField("dir", cfg.Upload.LocalDir).Warn("Cloudinary not configured, storing images locally")
		blobs, err := local.NewStore(cfg.Upload.LocalDir, cfg.Upload.PublicURL)
		if err != nil {
			return nil, err
		}
		deps.Blobs = blobs
		deps.LocalUploadDir = blobs.Dir()
	}

	if cfg.Kafka.Enabled() {
		bookingPublisher, err := kafka.NewBookingPublisher(&cfg.Kafka)
		if err != nil {
			return nil, err
		}
		deps.Publisher = bookingPublisher
	} else {
		deps.Publisher = publisher.Noop{}
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if closer, ok := d.Cache.(interface{ Close() error }); ok {
		closer.Close()
	}
	if d.Store != nil {
		d.Store.Close()
	}
}

func SetupRouter(cfg *config.Config, log *logrus.Logger, deps *Dependencies) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	sessions, err := NewSessionService(&cfg.Session)
	if err != nil {
		return nil, err
	}

	// Initialize managers
	venueManager := service.NewVenueManager(deps.Store, deps.Blobs, log)
	eventManager := service.NewEventManager(deps.Store, log)
	bookingManager := service.NewBookingManager(deps.Store, deps.Publisher, log)

	// Initialize handlers
	pages := NewPages(deps.Cache, log, time.Duration(cfg.Session.FlashTTLSecs)*time.Second)
	venueHandler := NewVenueHandler(venueManager, pages, cfg.Upload.MaxBytes)
	eventHandler := NewEventHandler(eventManager, venueManager, pages)
	bookingHandler := NewBookingHandler(bookingManager, eventManager, venueManager, pages)
	healthHandler := NewHealthHandler(deps.Store, deps.Cache)
	metrics := NewMetrics()

	// Setup Gin router
	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware(metrics))

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	if deps.LocalUploadDir != "" {
		r.Static(cfg.Upload.PublicURL, deps.LocalUploadDir)
	}

	// Browser routes share the session cookie and anti-forgery check
	app := r.Group("")
	app.Use(BodyLimitMiddleware(cfg.Upload.MaxBytes + 1<<20))
	app.Use(SessionMiddleware(sessions, log))
	app.Use(CSRFMiddleware(cfg.Upload.MaxBytes))

	app.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/venue")
	})

	venues := app.Group("/venue")
	venues.GET("", venueHandler.Index)
	venues.GET("/details/:id", venueHandler.Details)
	venues.GET("/create", venueHandler.CreateForm)
	venues.POST("/create", venueHandler.Create)
	venues.GET("/edit/:id", venueHandler.EditForm)
	venues.POST("/edit/:id", venueHandler.Edit)
	venues.GET("/delete/:id", venueHandler.ConfirmDelete)
	venues.POST("/delete/:id", venueHandler.Delete)

	events := app.Group("/event")
	events.GET("", eventHandler.Index)
	events.GET("/details/:id", eventHandler.Details)
	events.GET("/create", eventHandler.CreateForm)
	events.POST("/create", eventHandler.Create)
	events.GET("/edit/:id", eventHandler.EditForm)
	events.POST("/edit/:id", eventHandler.Edit)
	events.GET("/delete/:id", eventHandler.ConfirmDelete)
	events.POST("/delete/:id", eventHandler.Delete)

	bookings := app.Group("/booking")
	bookings.GET("", bookingHandler.Index)
	bookings.GET("/details/:id", bookingHandler.Details)
	bookings.GET("/create", bookingHandler.CreateForm)
	bookings.POST("/create", bookingHandler.Create)
	bookings.GET("/edit/:id", bookingHandler.EditForm)
	bookings.POST("/edit/:id", bookingHandler.Edit)
	bookings.GET("/delete/:id", bookingHandler.ConfirmDelete)
	bookings.POST("/delete/:id", bookingHandler.Delete)

	return r, nil
}
