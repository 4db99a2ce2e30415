package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"agriconnect/models"
	"agriconnect/services"
	"agriconnect/storage"
	"agriconnect/utils"
)

// Catalog is the read side of the farm catalog the API serves.
type Catalog interface {
	Farms() []*models.Farm
	Get(id string) (*models.Farm, error)
	LoadedAt() time.Time
}

// Options tune the API. Zero values pick the defaults.
type Options struct {
	MapPadding      float64
	InsightCacheTTL time.Duration
	CORSOrigins     []string
}

// Server wires the discovery services to HTTP. Favorites, Wishlist and Cache
// are optional; their routes or caching are skipped when nil.
type Server struct {
	Catalog   Catalog
	Favorites storage.FavoritesRepository
	Wishlist  storage.WishlistRepository
	Cache     storage.InsightCache
	Insights  *services.InsightService
	Logger    *utils.Logger
	Options   Options
}

const insightCacheKey = "insights:catalog"

// InsightCacheKey is the cache entry to drop when the catalog changes.
func InsightCacheKey() string { return insightCacheKey }

// NewRouter builds the gin engine with every route registered.
func (s *Server) NewRouter() *gin.Engine {
	if s.Options.MapPadding <= 0 {
		s.Options.MapPadding = 60
	}
	if s.Options.InsightCacheTTL <= 0 {
		s.Options.InsightCacheTTL = 5 * time.Minute
	}
	if s.Insights == nil {
		s.Insights = services.NewInsightService(s.Logger)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.Logger))
	r.Use(CORS(s.Options.CORSOrigins))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/search", s.search)
		api.GET("/map", s.mapView)
		api.GET("/insights", s.insights)
		api.GET("/compare", s.compare)

		farms := api.Group("/farms")
		{
			farms.GET("", s.listFarms)
			farms.GET("/nearby", s.nearby)
			farms.GET("/:id", s.getFarm)
		}

		users := api.Group("/users/:user")
		if s.Favorites != nil {
			users.GET("/favorites", s.listFavorites)
			users.GET("/favorites/:farmId", s.isFavorite)
			users.PUT("/favorites/:farmId", s.toggleFavorite)
			users.DELETE("/favorites", s.clearFavorites)
		}
		if s.Wishlist != nil {
			users.GET("/wishlist", s.listWishlist)
			users.POST("/wishlist", s.addToWishlist)
			users.DELETE("/wishlist", s.removeFromWishlist)
		}
	}
	return r
}
