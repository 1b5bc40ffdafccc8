package server

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/layout"
	"github.com/nvandessel/pheromones/internal/ratelimit"
	"github.com/nvandessel/pheromones/internal/snapshot"
	"github.com/nvandessel/pheromones/internal/universe"
)

func testUniverse(t *testing.T, text string) *universe.Universe {
	t.Helper()
	l, err := layout.ParseString(text)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	cfg := universe.DefaultConfig()
	cfg.Agents = 4
	u, err := universe.NewFromLayout(l, cfg, universe.WithSource(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("NewFromLayout: %v", err)
	}
	return u
}

// setupServer starts a loop and an httptest server. Limits are off unless
// limiters is non-nil.
func setupServer(t *testing.T, text string, interval time.Duration, limiters ratelimit.ToolLimiters) (*Server, *httptest.Server, context.CancelFunc) {
	t.Helper()
	if limiters == nil {
		limiters = ratelimit.ToolLimiters{}
	}
	s, err := NewServer(Config{
		Universe:     testUniverse(t, text),
		TickInterval: interval,
		Limiters:     limiters,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.Loop(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-s.done
		ts.Close()
	})
	return s, ts, cancel
}

func call(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestNewServer_RequiresUniverse(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Error("expected error without a universe")
	}
}

func TestServer_ServesHTML(t *testing.T) {
	_, ts, _ := setupServer(t, "SE\n", time.Hour, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/ws") {
		t.Error("page does not connect to the frame stream")
	}
}

func TestServer_Info(t *testing.T) {
	_, ts, _ := setupServer(t, "S..\n..E\n", time.Hour, nil)

	var info Info
	if code := call(t, "GET", ts.URL+"/api/info", &info); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if info.Width != 3 || info.Height != 2 {
		t.Errorf("dimensions = %dx%d, want 3x2", info.Width, info.Height)
	}
	if info.Start != (grid.Pos{Row: 0, Col: 0}) || info.End != (grid.Pos{Row: 1, Col: 2}) {
		t.Errorf("roles = %v %v", info.Start, info.End)
	}
	if info.Playing || info.Tick != 0 {
		t.Errorf("fresh server: playing=%v tick=%d", info.Playing, info.Tick)
	}
}

func TestServer_Cells(t *testing.T) {
	_, ts, _ := setupServer(t, "S#\n.E\n", time.Hour, nil)

	resp, err := http.Get(ts.URL + "/api/cells")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	f, err := snapshot.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.ASCII() != "S#\n.E\n" {
		t.Errorf("frame = %q", f.ASCII())
	}
}

func TestServer_Wall(t *testing.T) {
	_, ts, _ := setupServer(t, "S..\n..E\n", time.Hour, nil)

	var res CellResult
	if code := call(t, "POST", ts.URL+"/api/wall?row=0&col=1", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Cell != "Wall" {
		t.Errorf("Cell = %q, want Wall", res.Cell)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"out of bounds", "row=5&col=0", http.StatusBadRequest},
		{"negative", "row=0&col=-1", http.StatusBadRequest},
		{"start", "row=0&col=0", http.StatusConflict},
		{"end", "row=1&col=2", http.StatusConflict},
		{"malformed", "row=x&col=0", http.StatusBadRequest},
		{"missing", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := call(t, "POST", ts.URL+"/api/wall?"+tt.query, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestServer_Roles(t *testing.T) {
	_, ts, _ := setupServer(t, "S..\n...\n..E\n", time.Hour, nil)

	var res RolesResult
	if code := call(t, "POST", ts.URL+"/api/start?row=1&col=1", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Start != (grid.Pos{Row: 1, Col: 1}) {
		t.Errorf("Start = %v, want (1,1)", res.Start)
	}
	if code := call(t, "POST", ts.URL+"/api/end?row=1&col=1", nil); code != http.StatusConflict {
		t.Errorf("End onto Start status = %d, want 409", code)
	}
	if code := call(t, "POST", ts.URL+"/api/end?row=0&col=0", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.End != (grid.Pos{Row: 0, Col: 0}) {
		t.Errorf("End = %v, want (0,0)", res.End)
	}
}

func TestServer_Tick(t *testing.T) {
	_, ts, _ := setupServer(t, "SE\n", time.Hour, nil)

	var st universe.Stats
	if code := call(t, "POST", ts.URL+"/api/tick?n=5", &st); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if st.Tick != 5 || st.Arrivals != 20 {
		t.Errorf("stats = %+v, want tick 5 and 20 arrivals", st)
	}
	if code := call(t, "POST", ts.URL+"/api/tick", &st); code != http.StatusOK || st.Tick != 6 {
		t.Errorf("default n: status=%d tick=%d", code, st.Tick)
	}

	for _, q := range []string{"n=0", "n=-3", "n=abc", "n=10001"} {
		if code := call(t, "POST", ts.URL+"/api/tick?"+q, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, code)
		}
	}
}

func TestServer_PlayPause(t *testing.T) {
	_, ts, _ := setupServer(t, "SE\n", time.Millisecond, nil)

	var pr PlayResult
	if code := call(t, "POST", ts.URL+"/api/play", &pr); code != http.StatusOK || !pr.Playing {
		t.Fatalf("play: status=%d playing=%v", code, pr.Playing)
	}

	deadline := time.Now().Add(2 * time.Second)
	var info Info
	for {
		call(t, "GET", ts.URL+"/api/info", &info)
		if info.Tick > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no ticks while playing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if code := call(t, "POST", ts.URL+"/api/pause", &pr); code != http.StatusOK || pr.Playing {
		t.Fatalf("pause: status=%d playing=%v", code, pr.Playing)
	}
	call(t, "GET", ts.URL+"/api/info", &info)
	paused := info.Tick
	time.Sleep(20 * time.Millisecond)
	call(t, "GET", ts.URL+"/api/info", &info)
	if info.Tick != paused {
		t.Errorf("ticked while paused: %d -> %d", paused, info.Tick)
	}
}

func TestServer_RateLimited(t *testing.T) {
	limiters := ratelimit.ToolLimiters{"POST /api/tick": ratelimit.NewLimiter(1, 1)}
	_, ts, _ := setupServer(t, "SE\n", time.Hour, limiters)

	if code := call(t, "POST", ts.URL+"/api/tick", nil); code != http.StatusOK {
		t.Fatalf("first tick status = %d", code)
	}
	resp, err := http.Post(ts.URL+"/api/tick", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	// Unlimited routes are unaffected.
	if code := call(t, "GET", ts.URL+"/api/stats", nil); code != http.StatusOK {
		t.Errorf("stats status = %d", code)
	}
}

func TestServer_WebSocket(t *testing.T) {
	_, ts, _ := setupServer(t, "S.\n.E\n", time.Hour, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	read := func() snapshot.Frame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if kind != websocket.BinaryMessage {
			t.Fatalf("message type = %d, want binary", kind)
		}
		f, err := snapshot.Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		return f
	}

	if f := read(); f.Tick != 0 || f.Width != 2 {
		t.Errorf("initial frame tick=%d width=%d", f.Tick, f.Width)
	}
	call(t, "POST", ts.URL+"/api/tick?n=3", nil)
	if f := read(); f.Tick != 3 {
		t.Errorf("frame after tick: tick = %d, want 3", f.Tick)
	}
	call(t, "POST", ts.URL+"/api/wall?row=0&col=1", nil)
	if f := read(); f.At(0, 1) != grid.Wall {
		t.Errorf("frame after edit: cell = %v, want Wall", f.At(0, 1))
	}
}

func TestServer_LoopStopped(t *testing.T) {
	_, ts, cancel := setupServer(t, "SE\n", time.Hour, nil)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for call(t, "GET", ts.URL+"/api/info", nil) != http.StatusServiceUnavailable {
		if time.Now().After(deadline) {
			t.Fatal("requests still served after the loop stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListenAndServe(t *testing.T) {
	s, err := NewServer(Config{Universe: testUniverse(t, "SE\n"), Addr: "localhost:0"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()
	waitForServer(t, s, 2*time.Second)

	var info Info
	if code := call(t, "GET", "http://"+s.Addr()+"/api/info", &info); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func waitForServer(t *testing.T, s *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := s.Addr(); addr != "" {
			if resp, err := http.Get("http://" + addr + "/api/info"); err == nil {
				resp.Body.Close()
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start")
}
