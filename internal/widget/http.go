package widget

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/saadjs/fitplate/internal/model"
)

// Routes mounts the widget endpoints on r.
func (e *Exporter) Routes(r *mux.Router) {
	r.HandleFunc("/widget/{userID}", e.handleGet).Methods(http.MethodGet)
}

// handleGet serves the newest day, or the day named by ?date=YYYY-MM-DD.
func (e *Exporter) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := model.ParseDay(day); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	var (
		data Data
		ok   bool
	)
	if day == "" {
		data, ok = e.Latest(userID)
	} else {
		data, ok = e.Day(userID, day)
	}
	if !ok && e.dir != "" {
		load := func() (Data, error) { return Load(e.dir, userID) }
		if day != "" {
			load = func() (Data, error) { return LoadDay(e.dir, userID, day) }
		}
		if loaded, err := load(); err == nil {
			data, ok = loaded, true
		}
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no widget data for user"})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
