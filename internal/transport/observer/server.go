package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tileforge/internal/protocol"
	"tileforge/internal/sim/encoding"
	"tileforge/internal/sim/world"
	"tileforge/internal/sim/world/tile"
)

const (
	defaultRowsPerMessage = 16
	maxRowsPerMessage     = 256
	writeWait             = 5 * time.Second
)

// Server streams one finished world to websocket clients. The world is
// immutable once generated so handlers share it without locking.
type Server struct {
	res world.Result
	log *log.Logger

	// AllowRemote disables the loopback-only guard.
	AllowRemote bool

	upgrader websocket.Upgrader
	streams  atomic.Uint64
}

func NewServer(res world.Result, logger *log.Logger) *Server {
	return &Server{
		res: res,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler mounts the health probe, the meta endpoint and the world stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/world/meta", s.MetaHandler())
	mux.HandleFunc("/v1/world", s.WSHandler())
	return mux
}

// Streams reports how many world streams have been completed.
func (s *Server) Streams() uint64 { return s.streams.Load() }

func (s *Server) MetaHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.meta(defaultRowsPerMessage, protocol.EncodingCells))
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		rows, err := parseRowsPerMessage(q.Get("rows_per_message"))
		if err != nil {
			http.Error(rw, "bad rows_per_message", http.StatusBadRequest)
			return
		}
		enc := q.Get("encoding")
		switch enc {
		case "":
			enc = protocol.EncodingCells
		case protocol.EncodingCells, protocol.EncodingRLE:
		default:
			http.Error(rw, "bad encoding", http.StatusBadRequest)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if s.res.Grid == nil {
			s.writeJSON(conn, protocol.ErrorMsg{
				Type:            protocol.TypeError,
				ProtocolVersion: protocol.Version,
				Code:            protocol.ErrWorldNotFound,
				Message:         "no world loaded",
			})
			s.close(conn, websocket.CloseInternalServerErr, "no world")
			return
		}

		if err := s.writeJSON(conn, s.meta(rows, enc)); err != nil {
			s.logf("observer: meta write: %v", err)
			return
		}
		n := s.res.Grid.N
		for y0 := 0; y0 < n; y0 += rows {
			y1 := min(y0+rows, n)
			msg := protocol.RowsMsg{
				Type:            protocol.TypeRows,
				ProtocolVersion: protocol.Version,
				Y0:              y0,
				Encoding:        enc,
				Last:            y1 == n,
			}
			for y := y0; y < y1; y++ {
				row := s.res.Grid.Row(y)
				if enc == protocol.EncodingCells {
					msg.Rows = append(msg.Rows, encodeRow(row))
					continue
				}
				b64, err := encoding.EncodeRow(row)
				if err != nil {
					s.logf("observer: rle row %d: %v", y, err)
					s.close(conn, websocket.CloseInternalServerErr, "encode")
					return
				}
				msg.RLE = append(msg.RLE, b64)
			}
			if err := s.writeJSON(conn, msg); err != nil {
				s.logf("observer: rows write y0=%d: %v", y0, err)
				return
			}
		}
		s.streams.Add(1)
		s.close(conn, websocket.CloseNormalClosure, "done")
	}
}

func (s *Server) meta(rows int, enc string) protocol.WorldMetaMsg {
	res := s.res
	m := protocol.WorldMetaMsg{
		Type:            protocol.TypeWorldMeta,
		ProtocolVersion: protocol.Version,
		WorldID:         res.ID,
		Seed:            res.Seed,
		Origin:          [2]int{res.Origin.X, res.Origin.Y},
		Conditions: protocol.Conditions{
			TimeProgressionMinutes: res.Conditions.TimeProgressionMinutes,
			StartHour:              res.Conditions.StartHour,
		},
		Score:          res.Score,
		KindCounts:     map[string]int{},
		RowsPerMessage: rows,
		Encoding:       enc,
	}
	for _, w := range res.Conditions.Weathers {
		m.Conditions.Weathers = append(m.Conditions.Weathers, string(w))
	}
	for k := 0; k < tile.KindCount; k++ {
		m.KindPalette = append(m.KindPalette, tile.TerrainKind(k).String())
	}
	for c := 0; c < tile.ContentKindCount; c++ {
		m.ContentPalette = append(m.ContentPalette, tile.ContentKind(c).String())
	}
	if res.Grid != nil {
		m.Size = res.Grid.N
		for k, c := range res.Grid.KindCounts() {
			if c > 0 {
				m.KindCounts[tile.TerrainKind(k).String()] = c
			}
		}
	}
	return m
}

func encodeRow(row []tile.Tile) []protocol.Cell {
	out := make([]protocol.Cell, len(row))
	for i, t := range row {
		out[i] = protocol.Cell{int(t.Kind), int(t.Content.Kind), t.Content.Amount}
	}
	return out
}

func parseRowsPerMessage(v string) (int, error) {
	if v == "" {
		return defaultRowsPerMessage, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		n = defaultRowsPerMessage
	}
	return min(n, maxRowsPerMessage), nil
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (s *Server) close(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
