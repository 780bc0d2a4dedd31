package persistence

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/tilecity/internal/engine"
)

// Header is the plain JSON line that precedes the gob body, so tools can
// identify a snapshot after decompressing only its first line.
type Header struct {
	CityID     string `json:"city_id"`
	Month      uint32 `json:"month"`
	Size       int    `json:"size"`
	Population int    `json:"population"`
	Treasury   int64  `json:"treasury"`
}

func headerOf(st *engine.State) Header {
	h := Header{
		CityID:     st.CityID,
		Month:      st.Month,
		Population: st.Population,
		Treasury:   st.Treasury,
	}
	if st.Grid != nil {
		h.Size = st.Grid.Size
	}
	return h
}

// EncodeState writes st to w as zstd(header line + gob).
func EncodeState(w io.Writer, st *engine.State) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(headerOf(st))
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(st); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// DecodeState reads a state written by EncodeState.
func DecodeState(r io.Reader) (*engine.State, Header, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, h, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, h, fmt.Errorf("parse header: %w", err)
	}

	var st engine.State
	if err := gob.NewDecoder(br).Decode(&st); err != nil {
		return nil, h, fmt.Errorf("gob decode: %w", err)
	}
	return &st, h, nil
}

// WriteSnapshot writes st to a compressed snapshot file, creating parent
// directories as needed.
func WriteSnapshot(path string, st *engine.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := EncodeState(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot loads a snapshot file written by WriteSnapshot.
func ReadSnapshot(path string) (*engine.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, _, err := DecodeState(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
