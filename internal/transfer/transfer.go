// Package transfer moves one file at a time over a data channel as a text
// metadata frame, binary chunks and a text end frame.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ChunkSize is the largest binary frame the sender emits.
const ChunkSize = 64 * 1024

const (
	frameMetadata = "metadata"
	frameEnd      = "end"
)

// Metadata opens a transfer.
type Metadata struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Filetype string `json:"filetype"`
}

type endFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// FrameWriter is the transport side; peer.Negotiator implements it.
type FrameWriter interface {
	Send(data []byte) error
	SendText(s string) error
}

// Sender streams files to a FrameWriter.
type Sender struct {
	w FrameWriter
	// one transfer at a time on the channel
	mu sync.Mutex
}

func NewSender(w FrameWriter) *Sender {
	return &Sender{w: w}
}

// Send writes the metadata frame, then r in chunks of at most ChunkSize,
// then the end frame. A cancelled ctx stops between chunks without an end
// frame; the receiver drops the partial data on the next metadata frame.
func (s *Sender) Send(ctx context.Context, id, filename, filetype string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := json.Marshal(Metadata{Type: frameMetadata, ID: id, Filename: filename, Filetype: filetype})
	if err != nil {
		return err
	}
	if err := s.w.SendText(string(meta)); err != nil {
		return fmt.Errorf("send metadata: %w", err)
	}

	buf := make([]byte, ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if serr := s.w.Send(buf[:n]); serr != nil {
				return fmt.Errorf("send chunk: %w", serr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
	}

	end, err := json.Marshal(endFrame{Type: frameEnd, ID: id})
	if err != nil {
		return err
	}
	if err := s.w.SendText(string(end)); err != nil {
		return fmt.Errorf("send end: %w", err)
	}
	return nil
}

// Completed is a fully received file.
type Completed struct {
	ID       string
	Data     []byte
	Filename string
	Filetype string
}

// Receiver reassembles frames into files. It is safe for use from the
// data channel callback goroutine.
type Receiver struct {
	mu      sync.Mutex
	current *Metadata
	chunks  [][]byte
}

func NewReceiver() *Receiver {
	return &Receiver{}
}

// HandleFrame consumes one frame. It returns a Completed value when the
// frame is the end of the open transfer.
func (r *Receiver) HandleFrame(isText bool, data []byte) (*Completed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isText {
		if r.current != nil {
			r.chunks = append(r.chunks, append([]byte(nil), data...))
		}
		return nil, false
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, false
	}

	switch head.Type {
	case frameMetadata:
		var m Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, false
		}
		r.current = &m
		r.chunks = nil
	case frameEnd:
		var e endFrame
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, false
		}
		if r.current == nil || r.current.ID != e.ID {
			return nil, false
		}
		size := 0
		for _, c := range r.chunks {
			size += len(c)
		}
		out := make([]byte, 0, size)
		for _, c := range r.chunks {
			out = append(out, c...)
		}
		done := &Completed{ID: e.ID, Data: out, Filename: r.current.Filename, Filetype: r.current.Filetype}
		r.current = nil
		r.chunks = nil
		return done, true
	}
	return nil, false
}

// Reset drops a partially received transfer.
func (r *Receiver) Reset() {
	r.mu.Lock()
	r.current = nil
	r.chunks = nil
	r.mu.Unlock()
}
