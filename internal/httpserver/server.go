// internal/httpserver/server.go
//
// HTTP server wiring for the word-search backend.
// Responsibilities:
//   - Router + middleware (request IDs, logging, panic recovery, timeouts,
//     JSON, CORS).
//   - Public endpoints: "/", "/health", POST /puzzles, POST /daily/new.
//   - Session endpoints under /puzzles/{id}, gated by the session token:
//     view, gestures, whole-run selection, word list edits, regeneration and
//     the WebSocket channel.
//   - Publishing every operation's events to the hub so live sockets see them.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the anon cookie works).
//   - The WebSocket route sits outside the timeout middleware; it is long-lived.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

const requestTimeout = 10 * time.Second

// Server bundles the router with the session store and event hub.
type Server struct {
	r      *chi.Mux
	cfg    *config.Config
	store  store.Store
	hub    *events.Hub
	words  []words.Entry
	tokens *tokens
	daily  *daily.Registry
	now    func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
// entries is the word list new puzzles start from.
func New(cfg *config.Config, st store.Store, hub *events.Hub, entries []words.Entry) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    cfg,
		store:  st,
		hub:    hub,
		words:  entries,
		tokens: newTokens(cfg.JWTSecret, cfg.TokenTTL),
		daily:  daily.NewRegistry(),
		now:    time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"wordsearch-go","endpoints":["/health","POST /puzzles","POST /daily/new","/puzzles/{id}/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/puzzles", s.handleCreate)
		s.mountDaily(r)
	})

	s.r.Route("/puzzles/{id}", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/ws", s.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Get("/", s.handleView)
			r.Post("/gesture/{action}", s.handleGesture)
			r.Post("/select", s.handleSelect)
			r.Post("/words", s.handleAddWord)
			r.Put("/words/{index}", s.handleEditWord)
			r.Post("/regenerate", s.handleRegenerate)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// HTTPServer returns an *http.Server serving the router on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// writeError maps an operation error onto a status and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *words.RejectedError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "rejected", "message": rej.Message})
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, `{"error":"timeout"}`, http.StatusGatewayTimeout)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("requestId", chimw.GetReqID(r.Context())).Msg("request failed")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// opRes answers every session operation.
type opRes struct {
	Events []game.Event `json:"events"`
	View   game.View    `json:"view"`
}

// apply runs op on the session named in the path under the store's update
// lock, publishes the events and answers with events plus the new view.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, op func(*game.Session) ([]game.Event, error)) {
	id := chi.URLParam(r, "id")
	var res opRes
	err := s.store.Update(r.Context(), id, func(sess *game.Session) error {
		evs, err := op(sess)
		if err != nil {
			return err
		}
		res = opRes{Events: evs, View: sess.View()}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Events == nil {
		res.Events = []game.Event{}
	}
	s.publish(id, res.Events)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) publish(id string, evs []game.Event) {
	if dropped := s.hub.Publish(id, evs...); dropped > 0 {
		log.Warn().Str("session", id).Int("dropped", dropped).Msg("slow subscriber")
	}
}

// ------------------------------ PUZZLES -------------------------------------

// createReq is the body of POST /puzzles. Every field is optional.
type createReq struct {
	Size  int           `json:"size"`
	Seed  uint64        `json:"seed"`
	Words []words.Entry `json:"words"`
}

// createRes answers POST /puzzles and POST /daily/new.
type createRes struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Date      string    `json:"date,omitempty"`
	View      game.View `json:"view"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
	}
	if req.Size < 0 || req.Size > game.MaxSize {
		http.Error(w, `{"error":"invalid_size"}`, http.StatusBadRequest)
		return
	}
	if req.Size == 0 {
		req.Size = s.cfg.GridSize
	}
	if req.Words == nil {
		req.Words = s.words
	}

	sess, err := game.New(req.Words, game.Options{Size: req.Size, Seed: req.Seed})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondNew(w, r, sess, "")
}

// respondNew saves sess and answers with its token and view.
func (s *Server) respondNew(w http.ResponseWriter, r *http.Request, sess *game.Session, date string) {
	if err := s.store.Save(r.Context(), sess); err != nil {
		writeError(w, r, err)
		return
	}
	tok, exp, err := s.tokens.sign(sess.ID())
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("session", sess.ID()).Uint64("seed", sess.Seed()).Str("date", date).Msg("puzzle created")
	writeJSON(w, http.StatusOK, createRes{ID: sess.ID(), Token: tok, ExpiresAt: exp, Date: date, View: sess.View()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// cellReq is a {"row","col"} pair where both fields are required.
type cellReq struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

func (c cellReq) coord() (puzzle.Coord, bool) {
	if c.Row == nil || c.Col == nil {
		return puzzle.Coord{}, false
	}
	return puzzle.Coord{Row: *c.Row, Col: *c.Col}, true
}

// handleGesture forwards begin/continue/end/cancel. begin and continue
// take a {"row","col"} body.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	var c puzzle.Coord
	switch action {
	case "begin", "continue":
		var req cellReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
		var ok bool
		if c, ok = req.coord(); !ok {
			http.Error(w, `{"error":"missing_cell"}`, http.StatusBadRequest)
			return
		}
	case "end", "cancel":
	default:
		http.Error(w, `{"error":"unknown_action"}`, http.StatusNotFound)
		return
	}

	s.apply(w, r, func(sess *game.Session) ([]game.Event, error) {
		return gesture(sess, action, c), nil
	})
}

// gesture dispatches one gesture action; unknown actions do nothing.
func gesture(sess *game.Session, action string, c puzzle.Coord) []game.Event {
	switch action {
	case "begin":
		sess.Begin(c)
	case "continue":
		sess.Continue(c)
	case "cancel":
		sess.Cancel()
	case "end":
		return sess.End()
	}
	return nil
}

type selectReq struct {
	Cells []puzzle.Coord `json:"cells"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.apply(w, r, func(sess *game.Session) ([]game.Event, error) {
		return sess.Select(req.Cells), nil
	})
}

type wordReq struct {
	Word string `json:"word"`
}

func (s *Server) handleAddWord(w http.ResponseWriter, r *http.Request) {
	var req wordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.apply(w, r, func(sess *game.Session) ([]game.Event, error) {
		return sess.AddWord(req.Word)
	})
}

func (s *Server) handleEditWord(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, `{"error":"bad_index"}`, http.StatusBadRequest)
		return
	}
	var req wordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.apply(w, r, func(sess *game.Session) ([]game.Event, error) {
		return sess.EditWord(index, req.Word)
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, func(sess *game.Session) ([]game.Event, error) {
		return sess.Regenerate()
	})
}
