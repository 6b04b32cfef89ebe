// internal/httpserver/routes_ws.go
//
// WebSocket channel for one session: GET /puzzles/{id}/ws?token=...
//
// Client → server, one JSON object per message:
//
//	{"type":"begin","row":0,"col":0}   continue takes row/col too
//	{"type":"end"} {"type":"cancel"} {"type":"regenerate"} {"type":"view"}
//	{"type":"add","word":"oso"} {"type":"edit","index":1,"word":"lince"}
//
// Server → client:
//   - {"type":"view","view":{...}}             on connect and on "view"
//   - {"type":"result","events":[...],"view"}  reply to every other command
//   - {"type":"event","event":{...}}           hub events for this session,
//     whoever caused them
//   - {"type":"error","error":"...","message"} bad input or rejected words
//
// One goroutine reads, one writes; only the writer touches the connection's
// write side.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
	wsSendBuffer = 16
)

type wsIn struct {
	Type  string `json:"type"`
	Row   *int   `json:"row"`
	Col   *int   `json:"col"`
	Index int    `json:"index"`
	Word  string `json:"word"`
}

type wsOut struct {
	Type    string       `json:"type"`
	Event   *game.Event  `json:"event,omitempty"`
	Events  []game.Event `json:"events,omitempty"`
	View    *game.View   `json:"view,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.cfg.ClientOrigin || origin == "http://"+r.Host
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("websocket upgrade failed")
		return
	}
	log.Debug().Str("session", id).Msg("websocket connected")

	sub := s.hub.Register(id)
	send := make(chan wsOut, wsSendBuffer)
	v := sess.View()
	send <- wsOut{Type: "view", View: &v}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wsWritePump(conn, sub.C, send)
		_ = conn.Close()
	}()

	s.wsReadPump(conn, id, send, done)

	s.hub.Unregister(sub)
	close(send)
	<-done
	_ = conn.Close()
	log.Debug().Str("session", id).Msg("websocket disconnected")
}

// wsReadPump handles commands until the client goes away.
func (s *Server) wsReadPump(conn *websocket.Conn, id string, send chan<- wsOut, done <-chan struct{}) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsIn
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", id).Msg("websocket read")
			}
			return
		}
		select {
		case send <- s.wsHandle(id, msg):
		case <-done:
			return
		}
	}
}

// wsHandle runs one command and builds the reply.
func (s *Server) wsHandle(id string, msg wsIn) wsOut {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var op func(*game.Session) ([]game.Event, error)
	switch msg.Type {
	case "begin", "continue":
		c, ok := cellReq{Row: msg.Row, Col: msg.Col}.coord()
		if !ok {
			return wsOut{Type: "error", Error: "missing_cell", Message: msg.Type + " needs row and col"}
		}
		op = func(sess *game.Session) ([]game.Event, error) { return gesture(sess, msg.Type, c), nil }
	case "end", "cancel":
		op = func(sess *game.Session) ([]game.Event, error) { return gesture(sess, msg.Type, puzzle.Coord{}), nil }
	case "add":
		op = func(sess *game.Session) ([]game.Event, error) { return sess.AddWord(msg.Word) }
	case "edit":
		op = func(sess *game.Session) ([]game.Event, error) { return sess.EditWord(msg.Index, msg.Word) }
	case "regenerate":
		op = func(sess *game.Session) ([]game.Event, error) { return sess.Regenerate() }
	case "view":
		sess, err := s.store.Get(ctx, id)
		if err != nil {
			return wsError(err)
		}
		v := sess.View()
		return wsOut{Type: "view", View: &v}
	default:
		return wsOut{Type: "error", Error: "unknown_type", Message: msg.Type}
	}

	var out wsOut
	err := s.store.Update(ctx, id, func(sess *game.Session) error {
		evs, err := op(sess)
		if err != nil {
			return err
		}
		v := sess.View()
		out = wsOut{Type: "result", Events: evs, View: &v}
		return nil
	})
	if err != nil {
		return wsError(err)
	}
	s.publish(id, out.Events)
	return out
}

func wsError(err error) wsOut {
	var rej *words.RejectedError
	if errors.As(err, &rej) {
		return wsOut{Type: "error", Error: "rejected", Message: rej.Message}
	}
	log.Error().Err(err).Msg("websocket command failed")
	return wsOut{Type: "error", Error: "internal"}
}

// wsWritePump owns the write side: hub events, replies and pings.
// It returns when either channel closes or a write fails.
func wsWritePump(conn *websocket.Conn, evs <-chan game.Event, send <-chan wsOut) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	write := func(out wsOut) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(out) == nil
	}

	for {
		select {
		case ev, ok := <-evs:
			if !ok {
				return
			}
			if !write(wsOut{Type: "event", Event: &ev}) {
				return
			}
		case out, ok := <-send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
				return
			}
			if !write(out) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
