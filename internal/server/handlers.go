package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/geo"
	"github.com/five82/waypoint/internal/store"
)

// Query limits for the list endpoint.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

const (
	msgNotFound = "Feature not found"
	msgDeleted  = "Feature deleted successfully"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func errorBody(detail string) errorResponse {
	return errorResponse{Detail: detail}
}

// featureBody is the create and update request. Pointers tell a missing
// field from an empty one.
type featureBody struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Geometry    json.RawMessage `json:"geometry"`
}

func (b featureBody) payload() (features.Payload, error) {
	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return features.Payload{}, errors.New("name: field required")
	}
	if len(b.Geometry) == 0 || string(b.Geometry) == "null" {
		return features.Payload{}, errors.New("geometry: field required")
	}
	g, err := geo.ParseGeometryJSON(b.Geometry)
	if err != nil {
		return features.Payload{}, fmt.Errorf("geometry: %w", err)
	}
	p := features.Payload{Name: strings.TrimSpace(*b.Name), Geometry: g}
	if b.Description != nil {
		p.Description = *b.Description
	}
	return p, nil
}

func (s *Server) listFeatures(c *gin.Context) {
	limit, err := queryInt(c, "limit", DefaultLimit)
	if err != nil || limit < 1 || limit > MaxLimit {
		c.JSON(http.StatusUnprocessableEntity, errorBody(fmt.Sprintf("limit: must be between 1 and %d", MaxLimit)))
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusUnprocessableEntity, errorBody("offset: must be greater than or equal to 0"))
		return
	}

	rows, err := s.repo.List(c.Request.Context(), offset, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	records, err := store.Records(rows)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getFeature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := s.repo.Get(c.Request.Context(), id)
	if err != nil {
		s.repoError(c, err)
		return
	}
	s.writeRecord(c, http.StatusOK, row)
}

func (s *Server) createFeature(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	row, err := s.repo.Create(c.Request.Context(), p)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.log.Info().Int64("id", row.ID).Str("name", row.Name).Msg("feature created")
	s.writeRecord(c, http.StatusCreated, row)
}

func (s *Server) updateFeature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	row, err := s.repo.Update(c.Request.Context(), id, p)
	if err != nil {
		s.repoError(c, err)
		return
	}
	s.log.Info().Int64("id", row.ID).Str("name", row.Name).Msg("feature updated")
	s.writeRecord(c, http.StatusOK, row)
}

func (s *Server) deleteFeature(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.repo.Delete(c.Request.Context(), id); err != nil {
		s.repoError(c, err)
		return
	}
	s.log.Info().Int64("id", id).Msg("feature deleted")
	c.JSON(http.StatusOK, features.DeleteResponse{Message: msgDeleted})
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{}
	healthy := true
	if p, ok := s.repo.(Pinger); ok {
		status["database"] = checkResult(p.Ping(c.Request.Context()), &healthy)
	}
	for name, p := range s.checks {
		status[name] = checkResult(p.Ping(c.Request.Context()), &healthy)
	}
	code := http.StatusOK
	status["status"] = "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status["status"] = "degraded"
	}
	c.JSON(code, status)
}

func checkResult(err error, healthy *bool) string {
	if err != nil {
		*healthy = false
		return err.Error()
	}
	return "ok"
}

func (s *Server) writeRecord(c *gin.Context, code int, row store.Feature) {
	rec, err := row.Record()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(code, rec)
}

func (s *Server) repoError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody(msgNotFound))
		return
	}
	s.internalError(c, err)
}

func (s *Server) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
}

func bindPayload(c *gin.Context) (features.Payload, bool) {
	var body featureBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody("invalid JSON body: "+err.Error()))
		return features.Payload{}, false
	}
	p, err := body.payload()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(err.Error()))
		return features.Payload{}, false
	}
	return p, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody("id: must be an integer"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}
