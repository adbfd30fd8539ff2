package web

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/erazemk/shramba/internal/chart"
	"github.com/erazemk/shramba/internal/model"
)

// ChartTitle is the title drawn on the dashboard chart.
const ChartTitle = "Items by Category"

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	counts, err := s.Inventory.CategoryCounts(r.Context(), claims.UserID)
	if err != nil {
		s.internalError(w, r, "failed to count items", err)
		return
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	s.Templates.Render(w, http.StatusOK, "dashboard.html", &struct {
		PageData
		ChartTitle string
		Counts     []model.CategoryCount
		Total      int
	}{
		PageData:   PageData{Title: "Dashboard", User: claims},
		ChartTitle: ChartTitle,
		Counts:     counts,
		Total:      total,
	})
}

// DashboardChart handles GET /dashboard/chart.png.
func (s *Server) DashboardChart(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	counts, err := s.Inventory.CategoryCounts(r.Context(), claims.UserID)
	if err != nil {
		s.internalError(w, r, "failed to count items", err)
		return
	}

	bars := make([]chart.Bar, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Bar{Label: c.Label(), Value: c.Count})
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, ChartTitle, bars); err != nil {
		s.internalError(w, r, "failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write chart response", "error", err)
	}
}
