package observer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"tileforge/internal/protocol"
	"tileforge/internal/sim/encoding"
	"tileforge/internal/sim/world"
	"tileforge/internal/sim/world/tile"
)

func testResult() world.Result {
	g := tile.Filled(5, tile.Grass)
	g.At(1, 2).Content = tile.Garbage(7)
	g.At(4, 4).Kind = tile.DeepWater
	return world.Result{
		ID:         "w1",
		Seed:       9,
		Grid:       g,
		Conditions: world.DefaultConditions(),
	}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/world" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWSHandler_StreamsWorld(t *testing.T) {
	res := testResult()
	s := NewServer(res, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "?rows_per_message=2")
	defer conn.Close()

	var meta protocol.WorldMetaMsg
	if err := conn.ReadJSON(&meta); err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if meta.Type != protocol.TypeWorldMeta || meta.WorldID != "w1" || meta.Size != 5 || meta.RowsPerMessage != 2 {
		t.Fatalf("meta: %+v", meta)
	}
	if meta.KindCounts["GRASS"] != 24 || meta.KindCounts["DEEP_WATER"] != 1 {
		t.Fatalf("kind counts: %v", meta.KindCounts)
	}
	if len(meta.KindPalette) != tile.KindCount || meta.ContentPalette[int(tile.ContentGarbage)] != tile.ContentGarbage.String() {
		t.Fatalf("palettes: %v %v", meta.KindPalette, meta.ContentPalette)
	}

	var got []tile.Tile
	batches := 0
	for {
		var msg protocol.RowsMsg
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read rows: %v", err)
		}
		batches++
		if msg.Y0 != len(got)/5 {
			t.Fatalf("batch y0=%d after %d tiles", msg.Y0, len(got))
		}
		for _, row := range msg.Rows {
			for _, c := range row {
				got = append(got, tile.Tile{
					Kind:    tile.TerrainKind(c[0]),
					Content: tile.Content{Kind: tile.ContentKind(c[1]), Amount: c[2]},
				})
			}
		}
		if msg.Last {
			break
		}
	}
	if batches != 3 {
		t.Fatalf("batches=%d want 3", batches)
	}
	for i := range res.Grid.Tiles {
		if got[i] != res.Grid.Tiles[i] {
			t.Fatalf("tile %d: got %+v want %+v", i, got[i], res.Grid.Tiles[i])
		}
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

func TestWSHandler_RLERows(t *testing.T) {
	res := testResult()
	srv := httptest.NewServer(NewServer(res, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv, "?encoding=rle&rows_per_message=10")
	defer conn.Close()

	var meta protocol.WorldMetaMsg
	if err := conn.ReadJSON(&meta); err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if meta.Encoding != protocol.EncodingRLE {
		t.Fatalf("encoding: %q", meta.Encoding)
	}
	var msg protocol.RowsMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if !msg.Last || len(msg.RLE) != 5 || len(msg.Rows) != 0 {
		t.Fatalf("rows msg: %+v", msg)
	}
	for y, b64 := range msg.RLE {
		row, err := encoding.DecodeRow(b64)
		if err != nil {
			t.Fatalf("DecodeRow(%d): %v", y, err)
		}
		for x, got := range row {
			want := *res.Grid.At(x, y)
			if got != want {
				t.Fatalf("(%d,%d): got %+v want %+v", x, y, got, want)
			}
		}
	}
}

func TestWSHandler_NoWorld(t *testing.T) {
	srv := httptest.NewServer(NewServer(world.Result{}, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil || base.Type != protocol.TypeError {
		t.Fatalf("expected ERROR, got %s (%v)", b, err)
	}
}

func TestHandler_HealthAndMeta(t *testing.T) {
	srv := httptest.NewServer(NewServer(testResult(), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz: %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/v1/world/meta")
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	defer resp.Body.Close()
	var meta protocol.WorldMetaMsg
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.Seed != 9 || len(meta.Conditions.Weathers) != 2 {
		t.Fatalf("meta: %+v", meta)
	}

	for _, q := range []string{"?rows_per_message=abc", "?encoding=png"} {
		resp2, err := http.Get(srv.URL + "/v1/world" + q)
		if err != nil {
			t.Fatalf("bad param %s: %v", q, err)
		}
		resp2.Body.Close()
		if resp2.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d want 400", q, resp2.StatusCode)
		}
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:9000":   true,
		"10.0.0.2:80":  false,
		"garbage":      false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
}
