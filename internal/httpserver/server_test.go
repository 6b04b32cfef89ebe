package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

func testConfig() *config.Config {
	return &config.Config{
		ClientOrigin: "http://localhost:5173",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		DailySalt:    "salt",
		GridSize:     12,
		StoreDriver:  "memory",
	}
}

func newTestServer(t *testing.T, st store.Store) (*Server, *httptest.Server) {
	t.Helper()
	entries, err := words.Default()
	require.NoError(t, err)
	srv := New(testConfig(), st, events.NewHub(), entries)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, c *http.Client, method, url, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c == nil {
		c = http.DefaultClient
	}
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

func create(t *testing.T, ts *httptest.Server, body any) createRes {
	t.Helper()
	code, raw := call(t, nil, http.MethodPost, ts.URL+"/puzzles", "", body)
	require.Equal(t, http.StatusOK, code, string(raw))
	var res createRes
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

// gato creates a one-word puzzle and returns it with the word's placement.
func gato(t *testing.T, srv *Server, ts *httptest.Server) (createRes, puzzle.Placement) {
	t.Helper()
	res := create(t, ts, createReq{Seed: 7, Words: []words.Entry{{Word: "GATO", Marker: "🐱"}}})
	sess, err := srv.store.Get(context.Background(), res.ID)
	require.NoError(t, err)
	placed := sess.Placements()
	require.Len(t, placed, 1)
	return res, placed[0]
}

func decodeOp(t *testing.T, raw []byte) opRes {
	t.Helper()
	var res opRes
	require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	return res
}

func kinds(evs []game.Event) []game.EventKind {
	out := make([]game.EventKind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func TestDiagnostics(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore())

	code, raw := call(t, nil, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	code, raw = call(t, nil, http.MethodGet, ts.URL+"/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(raw), "not_found")
}

func TestCreateDefaults(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore())

	res := create(t, ts, nil)
	assert.NotEmpty(t, res.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 12, res.View.Size)
	assert.Equal(t, 6, res.View.Total)
	assert.Len(t, res.View.Rows, 12)
	assert.Equal(t, uint64(1), res.View.Generation)
}

func TestCreateRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore())

	for _, size := range []int{-3, game.MaxSize + 1, 50000} {
		code, raw := call(t, nil, http.MethodPost, ts.URL+"/puzzles", "", createReq{Size: size})
		assert.Equal(t, http.StatusBadRequest, code, "size %d", size)
		assert.Contains(t, string(raw), `"invalid_size"`)
	}

	code, raw := call(t, nil, http.MethodPost, ts.URL+"/puzzles", "", createReq{Size: 4, Words: []words.Entry{{Word: "ELEFANTE"}}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(raw), `"rejected"`)
}

func TestSessionTokenRequired(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore())
	a := create(t, ts, nil)
	b := create(t, ts, nil)
	url := ts.URL + "/puzzles/" + a.ID + "/"

	code, _ := call(t, nil, http.MethodGet, url, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, nil, http.MethodGet, url, b.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, nil, http.MethodGet, url, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, raw := call(t, nil, http.MethodGet, url+"?token="+a.Token, "", nil)
	require.Equal(t, http.StatusOK, code)
	var v game.View
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, a.View.Rows, v.Rows)
}

func TestGestureFindsWord(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	res, p := gato(t, srv, ts)
	base := ts.URL + "/puzzles/" + res.ID + "/gesture/"

	cells := p.Cells()
	code, raw := call(t, nil, http.MethodPost, base+"begin", res.Token, cells[0])
	require.Equal(t, http.StatusOK, code, string(raw))
	assert.Empty(t, decodeOp(t, raw).Events)

	for _, c := range cells[1:] {
		code, _ = call(t, nil, http.MethodPost, base+"continue", res.Token, c)
		require.Equal(t, http.StatusOK, code)
	}

	code, raw = call(t, nil, http.MethodPost, base+"end", res.Token, nil)
	require.Equal(t, http.StatusOK, code)
	op := decodeOp(t, raw)
	require.Equal(t, []game.EventKind{game.EventWordFound, game.EventPuzzleComplete}, kinds(op.Events))
	assert.Equal(t, "🐱", op.Events[0].Marker)
	assert.True(t, op.View.Complete)
	assert.Len(t, op.View.FoundCells, 4)

	code, _ = call(t, nil, http.MethodPost, base+"wiggle", res.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSelectNoMatchAndCancel(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	res, p := gato(t, srv, ts)
	url := ts.URL + "/puzzles/" + res.ID

	// The word's first cell alone never spells GATO.
	code, raw := call(t, nil, http.MethodPost, url+"/select", res.Token, selectReq{Cells: p.Cells()[:1]})
	require.Equal(t, http.StatusOK, code)
	op := decodeOp(t, raw)
	require.Equal(t, []game.EventKind{game.EventNoMatch}, kinds(op.Events))
	assert.Equal(t, 0, op.View.Found)

	call(t, nil, http.MethodPost, url+"/gesture/begin", res.Token, p.Start)
	code, raw = call(t, nil, http.MethodPost, url+"/gesture/cancel", res.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeOp(t, raw).View.Selection)

	for _, body := range []any{map[string]int{}, map[string]int{"row": 1}, map[string]int{"col": 1}} {
		code, raw = call(t, nil, http.MethodPost, url+"/gesture/continue", res.Token, body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, string(raw), `"missing_cell"`)
	}
}

func TestWordListRoutes(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	res, p := gato(t, srv, ts)
	url := ts.URL + "/puzzles/" + res.ID

	call(t, nil, http.MethodPost, url+"/select", res.Token, selectReq{Cells: p.Cells()})

	code, raw := call(t, nil, http.MethodPost, url+"/words", res.Token, wordReq{Word: "gato "})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.JSONEq(t, `{"error":"rejected","message":"this word is already in the list"}`, string(raw))

	code, raw = call(t, nil, http.MethodPost, url+"/words", res.Token, wordReq{Word: "SUPERCALIFRAGILISTICO"})
	require.Equal(t, http.StatusUnprocessableEntity, code, string(raw))

	code, raw = call(t, nil, http.MethodPost, url+"/words", res.Token, wordReq{Word: "oso"})
	require.Equal(t, http.StatusOK, code)
	op := decodeOp(t, raw)
	require.Equal(t, []game.EventKind{game.EventRegenerated}, kinds(op.Events))
	assert.Equal(t, 2, op.View.Total)
	assert.Equal(t, 0, op.View.Found)

	code, raw = call(t, nil, http.MethodPut, url+"/words/0", res.Token, wordReq{Word: "león"})
	require.Equal(t, http.StatusOK, code)
	op = decodeOp(t, raw)
	assert.Equal(t, "LEON", op.View.Words[0].Word)
	assert.Equal(t, "🐱", op.View.Words[0].Marker)
	assert.Equal(t, uint64(3), op.View.Generation)

	code, _ = call(t, nil, http.MethodPut, url+"/words/9", res.Token, wordReq{Word: "lobo"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, nil, http.MethodPut, url+"/words/x", res.Token, wordReq{Word: "lobo"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, raw = call(t, nil, http.MethodPost, url+"/regenerate", res.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(4), decodeOp(t, raw).View.Generation)
}

func TestSQLiteBackedServer(t *testing.T) {
	st, err := store.NewSQLiteStore(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	srv, ts := newTestServer(t, st)
	res, p := gato(t, srv, ts)
	base := ts.URL + "/puzzles/" + res.ID + "/gesture/"

	// The open gesture is persisted between requests.
	for i, c := range p.Cells() {
		action := "continue"
		if i == 0 {
			action = "begin"
		}
		code, _ := call(t, nil, http.MethodPost, base+action, res.Token, c)
		require.Equal(t, http.StatusOK, code)
	}
	code, raw := call(t, nil, http.MethodPost, base+"end", res.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeOp(t, raw).View.Complete)
}

func TestDailySameGridPerDate(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	srv.now = func() time.Time { return day }

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	alice := &http.Client{Jar: jar}

	dailyNew := func(c *http.Client) createRes {
		code, raw := call(t, c, http.MethodPost, ts.URL+"/daily/new", "", nil)
		require.Equal(t, http.StatusOK, code, string(raw))
		var res createRes
		require.NoError(t, json.Unmarshal(raw, &res))
		return res
	}

	first := dailyNew(alice)
	again := dailyNew(alice)
	bob := dailyNew(nil)

	assert.Equal(t, "2024-03-09", first.Date)
	assert.Equal(t, first.ID, again.ID)
	assert.NotEqual(t, first.ID, bob.ID)
	assert.Equal(t, first.View.Rows, bob.View.Rows)

	srv.now = func() time.Time { return day.Add(24 * time.Hour) }
	tomorrow := dailyNew(alice)
	assert.NotEqual(t, first.ID, tomorrow.ID)
	assert.NotEqual(t, first.View.Rows, tomorrow.View.Rows)
}

func dialWS(t *testing.T, ts *httptest.Server, res createRes) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/puzzles/" + res.ID + "/ws?token=" + res.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn, typ string) wsOut {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var out wsOut
		require.NoError(t, conn.ReadJSON(&out))
		if out.Type == typ {
			return out
		}
	}
}

func TestWebSocketPlay(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	res, p := gato(t, srv, ts)
	conn := dialWS(t, ts, res)

	hello := readWS(t, conn, "view")
	require.NotNil(t, hello.View)
	assert.Equal(t, res.View.Rows, hello.View.Rows)

	for i, c := range p.Cells() {
		typ := "continue"
		if i == 0 {
			typ = "begin"
		}
		require.NoError(t, conn.WriteJSON(wsIn{Type: typ, Row: lo.ToPtr(c.Row), Col: lo.ToPtr(c.Col)}))
		readWS(t, conn, "result")
	}
	require.NoError(t, conn.WriteJSON(wsIn{Type: "end"}))
	out := readWS(t, conn, "result")
	require.Equal(t, []game.EventKind{game.EventWordFound, game.EventPuzzleComplete}, kinds(out.Events))
	assert.True(t, out.View.Complete)

	require.NoError(t, conn.WriteJSON(wsIn{Type: "add", Word: "gato"}))
	bad := readWS(t, conn, "error")
	assert.Equal(t, "rejected", bad.Error)

	require.NoError(t, conn.WriteJSON(wsIn{Type: "dance"}))
	assert.Equal(t, "unknown_type", readWS(t, conn, "error").Error)

	require.NoError(t, conn.WriteJSON(wsIn{Type: "begin"}))
	assert.Equal(t, "missing_cell", readWS(t, conn, "error").Error)
	require.NoError(t, conn.WriteJSON(wsIn{Type: "continue", Row: lo.ToPtr(0)}))
	assert.Equal(t, "missing_cell", readWS(t, conn, "error").Error)
}

func TestWebSocketReceivesOtherClientsEvents(t *testing.T) {
	srv, ts := newTestServer(t, store.NewMemoryStore())
	res, p := gato(t, srv, ts)
	conn := dialWS(t, ts, res)
	readWS(t, conn, "view")

	require.Eventually(t, func() bool { return srv.hub.Count(res.ID) == 1 }, time.Second, 10*time.Millisecond)

	code, _ := call(t, nil, http.MethodPost, ts.URL+"/puzzles/"+res.ID+"/select", res.Token, selectReq{Cells: p.Cells()})
	require.Equal(t, http.StatusOK, code)

	ev := readWS(t, conn, "event")
	require.NotNil(t, ev.Event)
	assert.Equal(t, game.EventWordFound, ev.Event.Kind)
	assert.Equal(t, "GATO", ev.Event.Word)
}

func TestWebSocketRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, store.NewMemoryStore())
	res := create(t, ts, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/puzzles/" + res.ID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenExpiry(t *testing.T) {
	tk := newTokens("k", time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tk.now = func() time.Time { return now }

	raw, exp, err := tk.sign("abc")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), exp)

	sid, err := tk.verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", sid)

	now = now.Add(2 * time.Minute)
	_, err = tk.verify(raw)
	require.Error(t, err)

	_, err = newTokens("other", time.Minute).verify(raw)
	require.Error(t, err)
}
