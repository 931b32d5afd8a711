package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/chart"
	"github.com/TobiSchelling/heartbeat/internal/database"
	"github.com/TobiSchelling/heartbeat/internal/insight"
)

func (s *Server) handleIndex(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category != "" && !insight.Category(category).Valid() {
		category = ""
	}

	items, err := s.db.ListInsights(category, 200)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	runs, err := s.db.ListRuns(10)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	s.render(c, http.StatusOK, "index.html", map[string]any{
		"Insights":   items,
		"Stats":      stats,
		"Runs":       runs,
		"Categories": insight.Categories,
		"Selected":   category,
	})
}

func (s *Server) lookup(c *gin.Context) (*database.Insight, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "Not found")
		return nil, false
	}
	in, err := s.db.GetInsight(id)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if in == nil {
		c.String(http.StatusNotFound, "Not found")
		return nil, false
	}
	return in, true
}

func (s *Server) handleInsight(c *gin.Context) {
	in, ok := s.lookup(c)
	if !ok {
		return
	}
	env := in.Envelope()

	stats, err := env.StatisticsMap()
	if err != nil {
		s.log.Warn("undecodable statistics", zap.Int64("id", in.ID), zap.Error(err))
	}

	data := map[string]any{
		"Insight":    in,
		"Statistics": statisticsMarkdown(stats),
	}
	switch ch, err := env.Chart(); {
	case err != nil:
		s.log.Warn("undecodable chart", zap.Int64("id", in.ID), zap.Error(err))
	case ch == nil:
	default:
		if m, ok := ch.(insight.MessageChart); ok {
			data["ChartMessage"] = m.Message
		} else {
			data["HasChart"] = true
		}
	}

	s.render(c, http.StatusOK, "insight.html", data)
}

func (s *Server) handleChart(c *gin.Context) {
	in, ok := s.lookup(c)
	if !ok {
		return
	}
	env := in.Envelope()
	ch, err := env.Chart()
	if err != nil {
		c.String(http.StatusUnprocessableEntity, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, env.Title, env.ChartType, ch); err != nil {
		if errors.Is(err, chart.ErrNoChart) {
			c.String(http.StatusNotFound, "No chart")
			return
		}
		s.log.Error("rendering chart", zap.Int64("id", in.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// statisticsMarkdown lays out a statistics object as a two-column
// markdown table with keys in sorted order.
func statisticsMarkdown(stats map[string]any) string {
	if len(stats) == 0 {
		return "_No statistics._"
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(humanize(k)), cell(formatValue(stats[k])))
	}
	return b.String()
}

func humanize(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "n/a"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		// Feature weights read better as "name (weight)".
		if f, ok := v["feature"]; ok {
			return fmt.Sprintf("%s (%s)", formatValue(f), formatValue(v["importance"]))
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(v[k])
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprint(v)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
