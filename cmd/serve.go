package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		advisor, err := initAdvisor()
		if err != nil {
			return err
		}

		api := &apiServer{store: st, advisor: advisor}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// apiServer holds the handlers' shared dependencies.
type apiServer struct {
	store   store.Store
	advisor *engine.Advisor
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/reports", s.handleSubmitReport)
	r.Get("/reports", s.handleListReports)
	r.Get("/assessment", s.handleAssessment)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/candidates", s.handleCandidates)
	r.Post("/suspensions/{city}", s.handleSuspend)
	r.Delete("/suspensions/{city}", s.handleLift)
	r.Get("/suspensions", s.handleListSuspensions)
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var req model.Report
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.store.CreateReport(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Verify against the city's stored snapshot; a missing snapshot still
	// produces a verdict.
	snapshot, err := s.store.GetSnapshot(r.Context(), created.City)
	if err != nil {
		zap.L().Error("snapshot lookup failed", zap.String("city", created.City), zap.Error(err))
	}
	cred := engine.VerifyReport(*created, snapshot)
	if err := s.store.SaveCredibility(r.Context(), created.ID, cred); err != nil {
		zap.L().Error("save credibility failed", zap.String("report", created.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"report":      created,
		"credibility": cred,
	})
}

func (s *apiServer) handleListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := s.store.ListReports(r.Context(), store.ReportFilter{
		City:     q.Get("city"),
		Category: model.ReportCategory(q.Get("category")),
		Status:   model.ReportStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list reports failed")
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *apiServer) handleAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.LatestAssessment(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load assessment failed")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "no assessment available")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshots, err := s.store.ListSnapshots(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load snapshots failed")
		return
	}
	reports, err := s.store.ListReports(ctx, store.ReportFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load reports failed")
		return
	}

	assessment := s.advisor.AssessRisk(ctx, snapshots, reports)
	if err := s.store.SaveAssessment(ctx, assessment); err != nil {
		zap.L().Error("archive assessment failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (s *apiServer) handleCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshots, err := s.store.ListSnapshots(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load snapshots failed")
		return
	}
	reports, err := s.store.ListReports(ctx, store.ReportFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load reports failed")
		return
	}
	suspended, err := s.store.SuspendedCities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load suspensions failed")
		return
	}

	candidates := engine.RankCandidates(reports, snapshots, suspended)
	if candidates == nil {
		candidates = []model.SuspensionCandidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *apiServer) handleSuspend(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.store.SuspendCity(r.Context(), city, req.Reason); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"city": city, "status": "suspended"})
}

func (s *apiServer) handleLift(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	if err := s.store.LiftSuspension(r.Context(), city); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"city": city, "status": "lifted"})
}

func (s *apiServer) handleListSuspensions(w http.ResponseWriter, r *http.Request) {
	suspensions, err := s.store.ListSuspensions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list suspensions failed")
		return
	}
	if suspensions == nil {
		suspensions = []store.Suspension{}
	}
	writeJSON(w, http.StatusOK, suspensions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
