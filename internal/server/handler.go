package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/surveyline/spotd/internal/geojson"
	"github.com/surveyline/spotd/internal/spot"
)

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/spots", s.handleSpots)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleRoot)
	return withCORS(mux)
}

// withCORS mirrors the original data server, which allowed cross-origin
// access for the browser clients served from another port.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleSpots serves the spot document: GET fetches it (optionally filtered
// by kind), PUT replaces it.
func (s *Server) handleSpots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetSpots(w, r)
	case http.MethodPut:
		s.handlePutSpots(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleGetSpots(w http.ResponseWriter, r *http.Request) {
	loadsTotal.Inc()

	spots, err := s.gateway.Load(r.Context())
	if err != nil {
		s.logger.Printf("load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to read data")
		return
	}

	if code := r.URL.Query().Get("kind"); code != "" {
		spots = geojson.FilterByKind(spots, spot.KindFromCode(code))
	}

	if spots == nil {
		spots = []spot.Spot{}
	}
	spotCount.Set(float64(len(spots)))
	writeJSON(w, http.StatusOK, spots)
}

func (s *Server) handlePutSpots(w http.ResponseWriter, r *http.Request) {
	var spots []spot.Spot
	if err := json.NewDecoder(r.Body).Decode(&spots); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid spot document: %v", err))
		return
	}

	// Identity uniqueness is a store invariant; enforce it at the boundary.
	seen := make(map[string]bool, len(spots))
	for _, sp := range spots {
		if sp.ID == "" {
			writeError(w, http.StatusBadRequest, "spot without objectId")
			return
		}
		if seen[sp.ID] {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("duplicate objectId %q", sp.ID))
			return
		}
		seen[sp.ID] = true
	}

	if s.beforeSave != nil {
		s.beforeSave()
	}

	if err := s.gateway.Save(r.Context(), spots); err != nil {
		s.logger.Printf("save failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to write data")
		return
	}

	savesTotal.Inc()
	spotCount.Set(float64(len(spots)))
	s.logger.Printf("document replaced (%d spots)", len(spots))

	data, _ := json.Marshal(SpotUpdateData{Count: len(spots), Source: "put"})
	s.Broadcast(Message{Type: MessageTypeSpotUpdate, Data: data})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// handleRoot returns basic server information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>spotd</title>
</head>
<body>
    <h1>spotd data server</h1>
    <p>Spot document: <code>GET/PUT /api/spots</code> (filter with <code>?kind=G001</code>)</p>
    <p>Live updates: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a> &middot; Metrics: <a href="/metrics">/metrics</a></p>
</body>
</html>`, r.Host)
}

// writeJSON serializes v as JSON with the provided status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, message string) {
	errorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]string{"error": message})
}
