package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/job"
	"github.com/ar-rehman786/Axis-trade-market/internal/metrics"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
	"github.com/ar-rehman786/Axis-trade-market/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion and market intel API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{controller: env.Controller, market: env.Market}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer holds the handlers' collaborators. market may be nil; the
// market intel endpoints then answer 503.
type apiServer struct {
	controller *job.Controller
	market     store.Store
}

func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/ingest", s.handleIngest)
	r.Get("/job/{jobID}", s.handleJob)
	r.Get("/feeds", s.handleFeeds)
	r.Get("/report", s.handleReport)
	r.Post("/v1/calculate", s.handleCalculate)
	r.Get("/v1/pulse", s.handlePulse)
	r.Get("/v1/market-intel", s.handleMarketIntel)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req model.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.controller.Submit(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": id,
		"status": string(model.JobStatusPending),
	})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	j, err := s.controller.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *apiServer) handleFeeds(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("job_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	j, err := s.controller.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if j.Status != model.JobStatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s", j.Status))
		return
	}

	feeds := []map[string]any{}
	if j.Counts != nil {
		for label, count := range j.Counts.Feeds {
			feeds = append(feeds, map[string]any{"feed": label, "count": count})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": j.ID,
		"feeds":  feeds,
	})
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("job_id")
	label := r.URL.Query().Get("feed")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if id == "" || label == "" {
		writeError(w, http.StatusBadRequest, "job_id and feed are required")
		return
	}

	j, err := s.controller.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	artifact, ok := j.Outputs[label]
	if !ok {
		writeError(w, http.StatusNotFound, "no output for feed")
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		http.ServeFile(w, r, artifact.CSVPath)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, artifact.ReportPath)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// handleCalculate scores a single property from query parameters. Percent
// outputs are percentages; the score here is the exponential live form,
// not the weighted score used for tier assignment.
func (s *apiServer) handleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loan, err := parseFloatParam(q.Get("loan"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "loan must be a number")
		return
	}
	value, err := parseFloatParam(q.Get("value"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}
	if loan < 0 || value < 0 {
		writeError(w, http.StatusBadRequest, "loan and value must be >= 0")
		return
	}

	equityDelta := 0.0
	if raw := q.Get("equity_delta"); raw != "" {
		equityDelta, err = parseFloatParam(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "equity_delta must be a number")
			return
		}
	}

	var loanDate *time.Time
	if raw := q.Get("loan_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "loan_date must be YYYY-MM-DD")
			return
		}
		loanDate = &t
	}

	writeJSON(w, http.StatusOK, liveMetrics(loan, value, loanDate, equityDelta))
}

func parseFloatParam(raw string) (float64, error) {
	if raw == "" {
		return 0, eris.New("missing")
	}
	return strconv.ParseFloat(raw, 64)
}

// liveMetrics computes the single-record response shared by the calculate
// endpoint and the calc command.
func liveMetrics(loan, value float64, loanDate *time.Time, equityDelta float64) map[string]any {
	ltv := metrics.LTV(loan, value)
	equityPct := metrics.EquityPct(ltv)
	age := metrics.LoanAgeMonths(time.Now().UTC(), loanDate)
	phase := metrics.CyclePhase(age)
	velocity := metrics.VelocityFromEquityDelta(equityDelta)

	return map[string]any{
		"ltv":             round2(ltv * 100),
		"equity_pct":      round2(equityPct * 100),
		"equity_dollars":  round2(metrics.EquityDollars(value, loan)),
		"loan_age_months": age,
		"score":           round1(metrics.LiveScore(ltv, equityPct, age, equityDelta)),
		"churn_index":     round1(metrics.ChurnIndex(phase, velocity)),
		"cycle_phase":     round2(phase),
		"velocity":        round2(velocity),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *apiServer) handlePulse(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		writeError(w, http.StatusServiceUnavailable, "market store disabled")
		return
	}

	pulse, err := s.market.GetPulse(r.Context())
	if err != nil {
		zap.L().Error("pulse lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "pulse lookup failed")
		return
	}
	if pulse == nil {
		writeError(w, http.StatusNotFound, "no pulse recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, pulse)
}

func (s *apiServer) handleMarketIntel(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		writeError(w, http.StatusServiceUnavailable, "market store disabled")
		return
	}

	q := r.URL.Query()
	if zip := q.Get("zip"); zip != "" {
		summary, err := s.market.GetZip(r.Context(), zip)
		if err != nil {
			zap.L().Error("zip lookup failed", zap.String("zip", zip), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "zip lookup failed")
			return
		}
		if summary == nil {
			writeError(w, http.StatusNotFound, "zip not found")
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	city := q.Get("city")
	state := q.Get("state")
	if city == "" {
		writeError(w, http.StatusBadRequest, "city or zip is required")
		return
	}

	summary, err := s.market.GetCity(r.Context(), city, state)
	if err != nil {
		zap.L().Error("city lookup failed", zap.String("city", city), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "city lookup failed")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}

	zips, err := s.market.ListZipsForCity(r.Context(), summary.City)
	if err != nil {
		zap.L().Error("zip list failed", zap.String("city", city), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "zip list failed")
		return
	}

	writeJSON(w, http.StatusOK, model.MarketIntel{City: *summary, Zips: zips})
}
