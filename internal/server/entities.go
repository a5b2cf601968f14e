package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/entity"
	"github.com/latoulicious/arise-companion/pkg/storage"
)

const (
	msgBadID      = "Identifiant invalide"
	msgBadPayload = "Données invalides : le corps de la requête doit être un objet JSON"
	msgNotFound   = "Élément introuvable, veuillez rafraîchir la page"
)

// Columns owned by the server; a client cannot set them on create.
var serverFields = []string{"id", "image", "created_at", "updated_at", "last_modified"}

// crud is the HTTP face of one entity service
type crud[T any, K comparable, P any] struct {
	server  *Server
	service *entity.Service[T, K, P]
	parseID func(string) (K, error)
}

func parseInt64ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(msgBadID)
	}
	return id, nil
}

func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest(msgBadID)
	}
	return id, nil
}

// addEntityRoutes mounts the read routes on public and the full CRUD set on
// admin, both under /slug. Either group may be nil.
func addEntityRoutes[T any, K comparable, P any](s *Server, public, admin *gin.RouterGroup, slug string, service *entity.Service[T, K, P], parseID func(string) (K, error)) {
	h := &crud[T, K, P]{server: s, service: service, parseID: parseID}

	if public != nil {
		public.GET("/"+slug, h.list)
		public.GET("/"+slug+"/:id", h.get)
	}

	if admin != nil {
		admin.GET("/"+slug, h.list)
		admin.GET("/"+slug+"/:id", h.get)
		admin.POST("/"+slug, h.create)
		admin.PATCH("/"+slug+"/:id", h.update)
		admin.DELETE("/"+slug+"/:id", h.delete)
	}
}

func (h *crud[T, K, P]) list(c *gin.Context) {
	rows, err := h.service.Search(c.Request.Context(), entity.Query{
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
	})
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *crud[T, K, P]) get(c *gin.Context) {
	id, err := h.parseID(c.Param("id"))
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	row, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	if row == nil {
		h.server.abortWithError(c, apperror.New(apperror.KindNotFound, msgNotFound))
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *crud[T, K, P]) create(c *gin.Context) {
	data, file, closeFile, err := h.server.readPayload(c)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	defer closeFile()

	data, err = stripServerFields(data)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	row := new(T)
	if err := json.Unmarshal(data, row); err != nil {
		h.server.abortWithError(c, badRequest(msgBadPayload))
		return
	}

	created, err := h.service.Create(c.Request.Context(), row, file)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *crud[T, K, P]) update(c *gin.Context) {
	id, err := h.parseID(c.Param("id"))
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	data, file, closeFile, err := h.server.readPayload(c)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	defer closeFile()

	patch := new(P)
	if len(data) > 0 {
		if err := json.Unmarshal(data, patch); err != nil {
			h.server.abortWithError(c, badRequest(msgBadPayload))
			return
		}
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch, file)
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *crud[T, K, P]) delete(c *gin.Context) {
	id, err := h.parseID(c.Param("id"))
	if err != nil {
		h.server.abortWithError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.server.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// readPayload returns the JSON document of a write request and its optional
// image. Multipart requests carry the JSON in the "data" field and the image
// in "image"; other requests are plain JSON bodies.
func (s *Server) readPayload(c *gin.Context) (json.RawMessage, *storage.File, func(), error) {
	noop := func() {}

	if c.Request.ContentLength > s.opts.MaxBodyBytes {
		return nil, nil, noop, s.bodyTooLarge(c.Request.ContentLength)
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		raw, err := c.GetRawData()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, noop, s.bodyTooLarge(tooLarge.Limit + 1)
		}
		if err != nil {
			return nil, nil, noop, badRequest(msgBadPayload)
		}
		return raw, nil, noop, nil
	}

	// FormFile parses the form first so a read error surfaces here
	header, err := c.FormFile("image")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, nil, noop, s.bodyTooLarge(tooLarge.Limit + 1)
	}
	data := json.RawMessage(c.PostForm("data"))
	if errors.Is(err, http.ErrMissingFile) {
		return data, nil, noop, nil
	}
	if err != nil {
		return nil, nil, noop, badRequest(msgBadPayload)
	}
	body, err := header.Open()
	if err != nil {
		return nil, nil, noop, apperror.Wrap(apperror.KindUpload, err, "Impossible de lire l'image envoyée")
	}
	file := &storage.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        body,
	}
	return data, file, func() { _ = body.Close() }, nil
}

// bodyTooLarge reports a request body over the limit with the image size
// message, since only an image can make a write request that large
func (s *Server) bodyTooLarge(size int64) error {
	return storage.OversizeError(size, s.opts.MaxImageBytes)
}

func stripServerFields(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 {
		return json.RawMessage("{}"), nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, badRequest(msgBadPayload)
	}
	for _, name := range serverFields {
		delete(fields, name)
	}
	return json.Marshal(fields)
}
