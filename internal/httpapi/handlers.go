package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"jobradar-engine/internal/store"
)

func (d Deps) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
}

func (d Deps) status(w http.ResponseWriter, r *http.Request) {
	st, _ := d.Status.Load().(RunStatus)
	writeJSON(w, st)
}

func (d Deps) runNow(w http.ResponseWriter, r *http.Request) {
	if !d.TriggerRun() {
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, map[string]any{"ok": false, "msg": "run already in flight"})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (d Deps) listings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := store.ListRecent(r.Context(), d.DB.Pool, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, out)
}

func (d Deps) analysis(w http.ResponseWriter, r *http.Request) {
	stats, err := store.LocationAnalysis(r.Context(), d.DB.Pool)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}
