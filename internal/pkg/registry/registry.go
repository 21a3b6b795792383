package registry

import (
	"klaus/internal/pkg/worker"
	"klaus/pkg/cache"
	"klaus/pkg/mirror"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext carries every shared client a module may need. Modules
// receive their dependencies here instead of reaching for package globals.
type ModuleContext struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Cache   cache.CacheService
	Local   *sqlx.DB // node-local keepsake database
	Mirror  *mirror.Client
	Workers *worker.Pool
	Router  *gin.Engine
}

// Module is the unit of registration for a feature domain.
type Module interface {
	// Name returns the module name.
	Name() string

	// Init wires dependencies and registers routes.
	Init(ctx *ModuleContext) error

	// Priority orders initialization, lower first.
	// The user module initializes before modules that depend on it.
	Priority() int
}

var moduleRegistry = make(map[string]Module)

// Register adds a module to the registry. Called from module init().
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules returns all registered modules.
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules initializes all registered modules in priority order.
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	// Module count is small, a simple sort is enough.
	for i := 0; i < len(modules); i++ {
		for j := i + 1; j < len(modules); j++ {
			if modules[i].Priority() > modules[j].Priority() {
				modules[i], modules[j] = modules[j], modules[i]
			}
		}
	}

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}
