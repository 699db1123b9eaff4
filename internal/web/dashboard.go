package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/format"
	"github.com/camuig/alphastream/internal/portfolio"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"money":       format.Money,
	"signedMoney": format.SignedMoney,
	"pct":         format.Pct,
	"signedPct":   format.SignedPct,
	"stamp": func(p executor.ProfileStatus) string {
		if p.LastRebalanced == nil {
			return "never"
		}
		return p.LastRebalanced.Format(portfolio.StampLayout)
	},
	"warn": func(r drift.Result) bool {
		return r.NeedsRebalance
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

type DashboardData struct {
	Overview *executor.Overview
	Mode     string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{
		Overview: s.exec.Overview(r.Context()),
		Mode:     s.config.Prices.Provider,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		s.logger.Error("execute template", "error", err)
	}
}
