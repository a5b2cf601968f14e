package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/tierlist"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reorderRequest struct {
	Placements []tierlist.Placement `json:"placements"`
}

type saveBuildRequest struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) addAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", s.login)
	rg.POST("/logout", s.logout)

	admin := rg.Group("", s.requireAdmin())
	admin.GET("", s.dashboard)
	admin.GET("/session", s.session)
	admin.GET("/logs", s.recentLogs)
	admin.PUT("/tier-list/:grouping", s.reorderTierList)
	admin.PUT("/builds/:hunterId", s.saveBuild)
	admin.POST("/jobs/promo-expiry", s.runPromoExpiry)

	if cat := s.deps.Catalog; cat != nil {
		addEntityRoutes(s, nil, admin, "hunters", cat.Hunters, parseInt64ID)
		addEntityRoutes(s, nil, admin, "weapons", cat.Weapons, parseInt64ID)
		addEntityRoutes(s, nil, admin, "artifacts", cat.Artifacts, parseInt64ID)
		addEntityRoutes(s, nil, admin, "cores", cat.Cores, parseInt64ID)
		addEntityRoutes(s, nil, admin, "skills", cat.Skills, parseInt64ID)
		addEntityRoutes(s, nil, admin, "shadows", cat.Shadows, parseInt64ID)
		addEntityRoutes(s, nil, admin, "set-bonuses", cat.SetBonuses, parseInt64ID)
		addEntityRoutes(s, nil, admin, "promo-codes", cat.PromoCodes, parseUUID)
		addEntityRoutes(s, nil, admin, "youtube-links", cat.YoutubeLinks, parseUUID)
	}
}

func (s *Server) login(c *gin.Context) {
	if s.deps.Auth == nil {
		s.abortWithError(c, apperror.New(apperror.KindUnauthorized, "Authentification indisponible"))
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, badRequest("Adresse e-mail et mot de passe requis"))
		return
	}
	session, err := s.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, session.Token, int(s.deps.Auth.TTL().Seconds()), "/", "", s.opts.CookieSecure, true)
	c.JSON(http.StatusOK, session)
}

func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.CookieSecure, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"admin_id": c.GetString(adminIDKey),
		"email":    c.GetString("admin_email"),
	})
}

func (s *Server) dashboard(c *gin.Context) {
	if s.deps.Dashboard == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	stats, err := s.deps.Dashboard.Stats(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) recentLogs(c *gin.Context) {
	if s.deps.Logs == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		s.abortWithError(c, badRequest("Le paramètre limit doit être compris entre 1 et 1000"))
		return
	}
	logs, err := s.deps.Logs.Recent(limit)
	if err != nil {
		s.abortWithError(c, apperror.Unknown(err))
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) reorderTierList(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, badRequest(msgBadPayload))
		return
	}
	tiers, err := s.deps.TierLists.Reorder(c.Request.Context(), c.Param("grouping"), req.Placements)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

func (s *Server) saveBuild(c *gin.Context) {
	hunterID, err := parseInt64ID(c.Param("hunterId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var req saveBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, badRequest(msgBadPayload))
		return
	}
	build, err := s.deps.Builds.Save(c.Request.Context(), hunterID, req.Payload, req.Version)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, build)
}

// runPromoExpiry triggers the expiry sweep now instead of waiting for its
// schedule
func (s *Server) runPromoExpiry(c *gin.Context) {
	if s.deps.PromoExpiry == nil {
		s.abortWithError(c, apperror.New(apperror.KindNotFound, "Tâche introuvable"))
		return
	}
	deactivated, err := s.deps.PromoExpiry.Run(c.Request.Context())
	if err != nil {
		s.abortWithError(c, apperror.Unknown(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deactivated": deactivated,
		"status":      s.deps.PromoExpiry.Status(),
	})
}
