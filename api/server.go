// Package api provides the HTTP surface of the game server: the websocket
// endpoint, a small read-only JSON API over the room registry, and the
// static file fallback for the browser client.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Zak4b/P4-sub000/game/room"
	"github.com/Zak4b/P4-sub000/transport/websocket"
)

// Server routes HTTP traffic to the websocket handler and the room manager.
type Server struct {
	manager *room.Manager
	ws      *websocket.Handler
	router  *mux.Router
}

// NewServer builds the server and its routes. staticDir is served as a
// catch-all for everything the API does not claim.
func NewServer(manager *room.Manager, ws *websocket.Handler, staticDir string) *Server {
	s := &Server{
		manager: manager,
		ws:      ws,
		router:  mux.NewRouter(),
	}

	s.setupRoutes(staticDir)
	return s
}

func (s *Server) setupRoutes(staticDir string) {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{key}", s.handleGetRoom).Methods("GET")

	s.router.HandleFunc("/ws", s.ws.ServeWS)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	stats := s.manager.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": stats,
		"count": len(stats),
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	rm, ok := s.manager.Room(key)
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, rm.Stats())
}
