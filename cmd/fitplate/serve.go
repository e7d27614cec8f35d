package fitplate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/logstore"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve widget data, day summaries, trends and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			addr := serveAddr
			if addr == "" {
				addr = rt.cfg.HTTPAddr
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: addr, Handler: newRouter(rt), ReadHeaderTimeout: 5 * time.Second}
			errc := make(chan error, 1)
			go func() {
				rt.log.Info("http_server_starting", slog.String("addr", addr))
				errc <- srv.ListenAndServe()
			}()
			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			rt.log.Info("http_server_stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	},
}

func newRouter(rt *runtime) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	rt.widgets.Routes(r)

	r.HandleFunc("/users/{userID}/today", func(w http.ResponseWriter, req *http.Request) {
		day, err := parseDayOrToday(req.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		userID := mux.Vars(req)["userID"]
		status, err := service.TodaySummary(req.Context(), rt.sessions.get(userID).days, rt.goals, userID, day)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}).Methods(http.MethodGet)

	r.HandleFunc("/users/{userID}/analytics", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		from, to, err := parseRange(q.Get("from"), q.Get("to"), 7)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		userID := mux.Vars(req)["userID"]
		view, err := rt.sessions.get(userID).engine.Load(req.Context(), userID, from, to)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}).Methods(http.MethodGet)

	r.HandleFunc("/users/{userID}/scores", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		from, to, err := parseRange(q.Get("from"), q.Get("to"), 30)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		userID := mux.Vars(req)["userID"]
		points, err := rt.sessions.get(userID).engine.GradeHistory(req.Context(), userID, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}).Methods(http.MethodGet)

	r.HandleFunc("/users/{userID}/water", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Date   string  `json:"date"`
			Ounces float64 `json:"ounces"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		day, err := parseDayOrToday(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		userID := mux.Vars(req)["userID"]
		l, err := rt.sessions.get(userID).mutator.AddWater(req.Context(), userID, day, body.Ounces)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": model.DayKey(l.Date), "water": l.Water})
	}).Methods(http.MethodPost)
	return r
}

// statusFor maps a request superseded by a newer one from the same user to
// 409; anything else is a server error.
func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, logstore.ErrSuperseded) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default FITPLATE_HTTP_ADDR or 127.0.0.1:8080)")
}
