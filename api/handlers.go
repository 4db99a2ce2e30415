package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"agriconnect/models"
	"agriconnect/services"
	"agriconnect/storage"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"farms":    len(s.Catalog.Farms()),
		"loadedAt": s.Catalog.LoadedAt(),
	})
}

func (s *Server) listFarms(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	farms := services.FilterFarms(s.Catalog.Farms(), crit)
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"count":         len(farms),
		"activeFilters": crit.ActiveCount(),
		"data":          farms,
	})
}

func (s *Server) getFarm(c *gin.Context) {
	farm, err := s.Catalog.Get(c.Param("id"))
	if errors.Is(err, storage.ErrFarmNotFound) {
		ErrorResponse(c, http.StatusNotFound, "Farm not found")
		return
	} else if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, farm)
}

func (s *Server) nearby(c *gin.Context) {
	if c.Query("lat") == "" || c.Query("lon") == "" {
		ErrorResponse(c, http.StatusBadRequest, "lat and lon are required")
		return
	}
	lat, err := floatParam(c, "lat", 0)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := floatParam(c, "lon", 0)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		ErrorResponse(c, http.StatusBadRequest, "lat/lon out of range")
		return
	}
	radius, err := floatParam(c, "radius", 50)
	if err != nil || radius <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "radius must be a positive number of km")
		return
	}

	SuccessResponse(c, services.Nearby(s.Catalog.Farms(), orb.Point{lon, lat}, radius))
}

func (s *Server) search(c *gin.Context) {
	limit, err := intParam(c, "limit", 0)
	if err != nil || limit < 0 {
		ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	result := services.Search(s.Catalog.Farms(), c.Query("q"))
	totalFarms, totalCrops := len(result.Farms), len(result.Crops)
	result, more := services.Truncate(result, limit)

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"farms":      result.Farms,
		"crops":      result.Crops,
		"totalFarms": totalFarms,
		"totalCrops": totalCrops,
		"more":       more,
	})
}

func (s *Server) mapView(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	enabled, err := boolParam(c, "cluster", true)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var cluster func([]*models.Farm, bool) []models.Cluster
	switch strings.ToLower(c.DefaultQuery("strategy", "greedy")) {
	case "greedy":
		cluster = services.Cluster
	case "stable":
		cluster = services.ClusterStable
	default:
		ErrorResponse(c, http.StatusBadRequest, "strategy must be greedy or stable")
		return
	}

	width, err := floatParam(c, "width", 800)
	if err != nil || width <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "width must be a positive number")
		return
	}
	height, err := floatParam(c, "height", 600)
	if err != nil || height <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "height must be a positive number")
		return
	}
	padding, err := floatParam(c, "padding", s.Options.MapPadding)
	if err != nil || padding < 0 {
		ErrorResponse(c, http.StatusBadRequest, "padding must be a non-negative number")
		return
	}
	bounds, err := boundsFromQuery(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	farms := services.FilterFarms(s.Catalog.Farms(), crit)
	clusters := cluster(farms, enabled)
	markers, err := services.ProjectClusters(clusters, bounds, models.Viewport{Width: width, Height: height}, padding)
	if errors.Is(err, services.ErrInvalidBounds) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"farms":    len(farms),
		"clusters": len(markers),
		"markers":  markers,
		"density":  services.StateDensity(farms),
		"viewport": models.Viewport{Width: width, Height: height},
	})
}

func (s *Server) insights(c *gin.Context) {
	ctx := c.Request.Context()

	if s.Cache != nil {
		report, ok, err := s.Cache.Get(ctx, insightCacheKey)
		if err != nil {
			s.Logger.Warn("[api] Insight cache read failed: %v", err)
		} else if ok {
			c.Header("X-Cache", "HIT")
			SuccessResponse(c, report)
			return
		}
	}

	report := s.Insights.Generate(s.Catalog.Farms())
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, insightCacheKey, report, s.Options.InsightCacheTTL); err != nil {
			s.Logger.Warn("[api] Insight cache write failed: %v", err)
		}
		c.Header("X-Cache", "MISS")
	}
	SuccessResponse(c, report)
}

func (s *Server) compare(c *gin.Context) {
	ids := listParam(c, "ids")
	if len(ids) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "ids is required")
		return
	}

	result, err := services.Compare(s.Catalog.Farms(), ids)
	if errors.Is(err, services.ErrTooManyToCompare) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, result)
}

func (s *Server) listFavorites(c *gin.Context) {
	ids, err := s.Favorites.ListFavorites(c.Request.Context(), c.Param("user"))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, gin.H{"farmIds": ids})
}

func (s *Server) isFavorite(c *gin.Context) {
	farmID := c.Param("farmId")
	fav, err := s.Favorites.IsFavorite(c.Request.Context(), c.Param("user"), farmID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, gin.H{"farmId": farmID, "favorite": fav})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	farmID := c.Param("farmId")
	if _, err := s.Catalog.Get(farmID); err != nil {
		ErrorResponse(c, http.StatusNotFound, "Farm not found")
		return
	}

	fav, err := s.Favorites.ToggleFavorite(c.Request.Context(), c.Param("user"), farmID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, gin.H{"farmId": farmID, "favorite": fav})
}

func (s *Server) clearFavorites(c *gin.Context) {
	if err := s.Favorites.ClearFavorites(c.Request.Context(), c.Param("user")); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

type wishlistRequest struct {
	FarmID   string `json:"farmId" binding:"required"`
	CropType string `json:"cropType" binding:"required"`
}

// listWishlist answers a contains query when farmId and cropType are both
// given, and lists the whole wishlist when neither is.
func (s *Server) listWishlist(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")
	farmID, cropType := c.Query("farmId"), c.Query("cropType")

	switch {
	case farmID != "" && cropType != "":
		in, err := s.Wishlist.IsInWishlist(ctx, user, farmID, cropType)
		if err != nil {
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		SuccessResponse(c, gin.H{"farmId": farmID, "cropType": cropType, "inWishlist": in})
		return
	case farmID != "" || cropType != "":
		ErrorResponse(c, http.StatusBadRequest, "farmId and cropType go together")
		return
	}

	items, err := s.Wishlist.ListWishlist(ctx, user)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, items)
}

func (s *Server) addToWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	farm, err := s.Catalog.Get(req.FarmID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Farm not found")
		return
	}
	offered := false
	for _, crop := range farm.Crops {
		if crop.Type == req.CropType {
			offered = true
			break
		}
	}
	if !offered {
		ErrorResponse(c, http.StatusBadRequest, "Farm does not offer "+req.CropType)
		return
	}

	added, err := s.Wishlist.AddToWishlist(c.Request.Context(), c.Param("user"), req.FarmID, req.CropType)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"status": "success", "added": added})
}

// removeFromWishlist drops one item when farmId and cropType are given, and
// clears the whole wishlist otherwise.
func (s *Server) removeFromWishlist(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")
	farmID, cropType := c.Query("farmId"), c.Query("cropType")

	var err error
	switch {
	case farmID != "" && cropType != "":
		err = s.Wishlist.RemoveFromWishlist(ctx, user, farmID, cropType)
	case farmID == "" && cropType == "":
		err = s.Wishlist.ClearWishlist(ctx, user)
	default:
		ErrorResponse(c, http.StatusBadRequest, "farmId and cropType go together")
		return
	}
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
