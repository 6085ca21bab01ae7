package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/clock"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/dependencies/random"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/presence"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/services/registry"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage"
	filestorage "github.com/IMICARUSS/PIXEL-NEXUS/internal/storage/file"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/storage/memory"
	redisstorage "github.com/IMICARUSS/PIXEL-NEXUS/internal/storage/redis"
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// DefaultIdentityFile is used when StorageType is "file" and no path is given
const DefaultIdentityFile = "players.json"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry *registry.Controller
	Presence *presence.Controller
	Hub      *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// IdentityFile is the path to the identity artifact (file storage only)
	// If empty, defaults to DefaultIdentityFile
	IdentityFile string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		path := cfg.IdentityFile
		if path == "" {
			path = DefaultIdentityFile
		}
		fileStore, err := filestorage.New(path, logger)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'file' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	registryController := registry.NewController(store, clk, rnd, logger)
	presenceController := presence.NewController(registryController, clk, logger)
	hub := ws.NewHub(logger)

	return &App{
		Storage:  store,
		Clock:    clk,
		Random:   rnd,
		Registry: registryController,
		Presence: presenceController,
		Hub:      hub,
	}
}
