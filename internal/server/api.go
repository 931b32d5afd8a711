package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/database"
	"github.com/TobiSchelling/heartbeat/internal/insight"
	"github.com/TobiSchelling/heartbeat/internal/transmit"
)

const maxBodyBytes = 1 << 20

// insightView is the JSON form of a stored insight.
type insightView struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	ChartType  string          `json:"chartType,omitempty"`
	ChartData  json.RawMessage `json:"chartData,omitempty"`
	Statistics json.RawMessage `json:"statistics"`
	RunID      string          `json:"runId,omitempty"`
	ReceivedAt string          `json:"receivedAt,omitempty"`
}

func newInsightView(i database.Insight) insightView {
	env := i.Envelope()
	v := insightView{
		ID:         i.ID,
		Title:      env.Title,
		Category:   i.Category,
		ChartType:  env.ChartType,
		ChartData:  env.ChartData,
		Statistics: env.Statistics,
	}
	if i.RunID != nil {
		v.RunID = *i.RunID
	}
	if i.ReceivedAt != nil {
		v.ReceivedAt = *i.ReceivedAt
	}
	return v
}

func (s *Server) handlePostInsight(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var env insight.Envelope
	if err := json.NewDecoder(c.Request.Body).Decode(&env); err != nil {
		Error(c, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := env.Validate(); err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := env.Chart(); err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.db.InsertInsight(env, c.GetHeader(transmit.HeaderRequestID), c.GetHeader(transmit.HeaderRunID))
	if err != nil {
		s.log.Error("storing insight", zap.String("title", env.Title), zap.Error(err))
		Error(c, http.StatusInternalServerError, "could not store insight")
		return
	}
	s.log.Info("insight received",
		zap.Int64("id", id),
		zap.String("title", env.Title),
		zap.String("category", string(env.Category)),
		zap.String("run_id", c.GetHeader(transmit.HeaderRunID)),
	)
	Created(c, gin.H{"id": id})
}

func (s *Server) handleListInsights(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category != "" && !insight.Category(category).Valid() {
		Error(c, http.StatusBadRequest, "unknown category "+strconv.Quote(category))
		return
	}
	limit := intQuery(c, "limit", 100)

	items, err := s.db.ListInsights(category, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]insightView, len(items))
	for i, it := range items {
		views[i] = newInsightView(it)
	}
	Ok(c, views, map[string]any{"count": len(views), "limit": limit})
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
