// internal/httpserver/routes_daily.go
//
// HTTP route for the daily puzzle.
//   - POST /daily/new → today's puzzle for this player.
//
// The grid comes from a seed derived from the UTC date and DAILY_SALT, so
// every player gets the same letters on the same day. A player asking twice
// gets their own session back (with a fresh token) until the date rolls over.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/store"
)

// mountDaily registers the /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
	})
}

func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	player := ensureAnonID(w, r)
	now := s.now()
	date := daily.DateKey(now)

	if id, ok := s.daily.Lookup(player, date); ok {
		sess, err := s.store.Get(r.Context(), id)
		switch {
		case err == nil:
			s.respondExisting(w, r, sess, date)
			return
		case errors.Is(err, store.ErrNotFound):
			s.daily.Forget(player, date)
		default:
			writeError(w, r, err)
			return
		}
	}

	sess, err := game.New(s.words, game.Options{
		Size: s.cfg.GridSize,
		Seed: daily.Seed(now, s.cfg.DailySalt),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.daily.Remember(player, date, sess.ID())
	s.respondNew(w, r, sess, date)
}

// respondExisting hands an already stored session back with a new token.
func (s *Server) respondExisting(w http.ResponseWriter, r *http.Request, sess *game.Session, date string) {
	tok, exp, err := s.tokens.sign(sess.ID())
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, createRes{ID: sess.ID(), Token: tok, ExpiresAt: exp, Date: date, View: sess.View()})
}
