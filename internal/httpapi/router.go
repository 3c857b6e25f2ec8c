package httpapi

import "net/http"

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: d.health,
	}))
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: d.status,
	}))
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: d.runNow,
	}))
	mux.HandleFunc("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: d.listings,
	}))
	mux.HandleFunc("/analysis", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: d.analysis,
	}))
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: d.serveSSE,
	}))

	return mux
}
