package protocol

// WORLD_META (server -> client). First message on a world stream.
type WorldMetaMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	WorldID string `json:"world_id"`
	Seed    uint64 `json:"seed"`
	Size    int    `json:"size"`

	Origin     [2]int     `json:"origin"`
	Conditions Conditions `json:"conditions"`
	Score      float32    `json:"score"`

	// Palettes index the integers used in ROWS cells.
	KindPalette    []string       `json:"kind_palette"`
	ContentPalette []string       `json:"content_palette"`
	KindCounts     map[string]int `json:"kind_counts"`

	RowsPerMessage int    `json:"rows_per_message"`
	Encoding       string `json:"encoding"`
}

type Conditions struct {
	Weathers               []string `json:"weathers"`
	TimeProgressionMinutes int      `json:"time_progression_minutes"`
	StartHour              int      `json:"start_hour"`
}

// Cell is [kind, content, amount].
type Cell [3]int

// Row encodings.
const (
	EncodingCells = "cells"
	EncodingRLE   = "rle"
)

// ROWS (server -> client). Rows[i] (or RLE[i]) is grid row Y0+i.
type RowsMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Y0              int      `json:"y0"`
	Encoding        string   `json:"encoding"`
	Rows            [][]Cell `json:"rows,omitempty"`
	RLE             []string `json:"rle,omitempty"`
	Last            bool     `json:"last,omitempty"`
}

// ERROR (server -> client). Sent before closing a stream that cannot be served.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
