package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/entity"
)

// HealthResponse is the body of /health
type HealthResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version,omitempty"`
	Uptime            string `json:"uptime"`
	DatabaseConnected bool   `json:"database_connected"`
	Error             string `json:"error,omitempty"`
}

func (s *Server) addPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", s.health)
	rg.GET("/tier-list", s.tierListGroupings)
	rg.GET("/tier-list/:grouping", s.tierList)
	rg.GET("/builds", s.listBuilds)
	rg.GET("/builds/:hunterId", s.getBuild)
	rg.GET("/promo-codes", s.activePromoCodes)

	if cat := s.deps.Catalog; cat != nil {
		rg.GET("/guides", s.guides)
		addEntityRoutes(s, rg, nil, "hunters", cat.Hunters, parseInt64ID)
		addEntityRoutes(s, rg, nil, "weapons", cat.Weapons, parseInt64ID)
		addEntityRoutes(s, rg, nil, "artifacts", cat.Artifacts, parseInt64ID)
		addEntityRoutes(s, rg, nil, "cores", cat.Cores, parseInt64ID)
		addEntityRoutes(s, rg, nil, "skills", cat.Skills, parseInt64ID)
		addEntityRoutes(s, rg, nil, "shadows", cat.Shadows, parseInt64ID)
		addEntityRoutes(s, rg, nil, "set-bonuses", cat.SetBonuses, parseInt64ID)
	}
}

func (s *Server) health(c *gin.Context) {
	resp := HealthResponse{
		Status:            "healthy",
		Version:           s.opts.Version,
		Uptime:            time.Since(s.started).Round(time.Second).String(),
		DatabaseConnected: true,
	}
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.DatabaseConnected = false
			resp.Error = "database unreachable"
			s.logger.Error("Health check failed", err, nil)
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) tierListGroupings(c *gin.Context) {
	groupings, err := s.deps.TierLists.Groupings(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if groupings == nil {
		groupings = []string{}
	}
	c.JSON(http.StatusOK, groupings)
}

func (s *Server) tierList(c *gin.Context) {
	tiers, err := s.deps.TierLists.Get(c.Request.Context(), c.Param("grouping"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

func (s *Server) listBuilds(c *gin.Context) {
	builds, err := s.deps.Builds.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, builds)
}

func (s *Server) getBuild(c *gin.Context) {
	hunterID, err := parseInt64ID(c.Param("hunterId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	build, err := s.deps.Builds.Get(c.Request.Context(), hunterID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, build)
}

func (s *Server) activePromoCodes(c *gin.Context) {
	if s.deps.Promos == nil {
		c.JSON(http.StatusOK, []models.PromoCode{})
		return
	}
	codes, err := s.deps.Promos.ListActive(c.Request.Context(), time.Now().UTC())
	if err != nil {
		s.abortWithError(c, apperror.Wrap(apperror.KindUnknown, err, "Impossible de récupérer les codes promo"))
		return
	}
	if codes == nil {
		codes = []models.PromoCode{}
	}
	c.JSON(http.StatusOK, codes)
}

// guides lists the YouTube guide links, newest first unless sort says otherwise
func (s *Server) guides(c *gin.Context) {
	sort := c.DefaultQuery("sort", "created")
	links, err := s.deps.Catalog.YoutubeLinks.Search(c.Request.Context(), entity.Query{Search: c.Query("q"), Sort: sort})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if links == nil {
		links = []models.YoutubeLink{}
	}
	c.JSON(http.StatusOK, links)
}
