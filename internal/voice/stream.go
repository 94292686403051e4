package voice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sakhi-assistant/sakhi/internal/config"
)

// ErrStreamActive signals a start attempt while the stream is already
// consuming audio. Callers treat it as a no-op.
var ErrStreamActive = errors.New("transcript stream already active")

// pcmChunkSize is the number of PCM bytes sent per websocket message
// (100 ms of 16 kHz mono S16_LE audio).
const pcmChunkSize = 3200

// WSStream streams microphone PCM to a duplex speech-recognition
// websocket and surfaces transcript events.
type WSStream struct {
	url        string
	apiKey     string
	sampleRate int
	pcm        func() io.Reader

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	active  bool
}

// NewWSStream creates a stream. pcm returns the live microphone reader at
// start time, so the stream survives microphone session restarts.
func NewWSStream(cfg config.SpeechConfig, pcm func() io.Reader) *WSStream {
	return &WSStream{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		sampleRate: cfg.SampleRate,
		pcm:        pcm,
	}
}

type streamFrame struct {
	Header  frameHeader  `json:"header"`
	Payload framePayload `json:"payload"`
}

type frameHeader struct {
	TaskID    string `json:"task_id"`
	Action    string `json:"action,omitempty"`
	Event     string `json:"event,omitempty"`
	Streaming string `json:"streaming,omitempty"`
}

type framePayload struct {
	TaskGroup  string         `json:"task_group,omitempty"`
	Task       string         `json:"task,omitempty"`
	Function   string         `json:"function,omitempty"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Input      map[string]any `json:"input"`
	Output     *frameOutput   `json:"output,omitempty"`
}

type frameOutput struct {
	Sentence struct {
		Text        string `json:"text"`
		SentenceEnd bool   `json:"sentence_end"`
	} `json:"sentence"`
}

func newTaskID() string {
	var b [16]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Start dials the recognizer and begins pumping audio. Returns
// ErrStreamActive if a stream is already running.
func (s *WSStream) Start(ctx context.Context) (<-chan StreamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil, ErrStreamActive
	}

	headers := http.Header{}
	if s.apiKey != "" {
		headers.Add("Authorization", "Bearer "+s.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, headers)
	if err != nil {
		return nil, fmt.Errorf("dialing recognizer: %w", err)
	}

	taskID := newTaskID()
	start := streamFrame{
		Header: frameHeader{TaskID: taskID, Action: "run-task", Streaming: "duplex"},
		Payload: framePayload{
			TaskGroup: "audio",
			Task:      "asr",
			Function:  "recognition",
			Model:     "paraformer-realtime-v2",
			Parameters: map[string]any{
				"format":      "pcm",
				"sample_rate": s.sampleRate,
			},
			Input: map[string]any{},
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return nil, fmt.Errorf("starting recognition task: %w", err)
	}

	s.conn = conn
	s.active = true

	events := make(chan StreamEvent, 16)
	go s.pumpAudio(ctx, conn)
	go s.readEvents(conn, events)
	return events, nil
}

// pumpAudio forwards microphone PCM to the recognizer until the stream
// dies or the context ends.
func (s *WSStream) pumpAudio(ctx context.Context, conn *websocket.Conn) {
	reader := s.pcm()
	if reader == nil {
		return
	}

	buf := make([]byte, pcmChunkSize)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			s.writeMu.Lock()
			werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n])
			s.writeMu.Unlock()
			if werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// readEvents surfaces transcript updates until the task finishes or the
// connection drops, then closes the channel and releases the stream.
func (s *WSStream) readEvents(conn *websocket.Conn, events chan<- StreamEvent) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		s.active = false
		s.conn = nil
		s.mu.Unlock()
		close(events)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame streamFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}

		switch frame.Header.Event {
		case "task-finished", "task-failed":
			return
		case "result-generated":
			if frame.Payload.Output == nil {
				continue
			}
			text := frame.Payload.Output.Sentence.Text
			if text == "" {
				continue
			}
			events <- StreamEvent{Text: text, Final: frame.Payload.Output.Sentence.SentenceEnd}
		}
	}
}

// Stop asks the recognizer to finish the task and drops the connection.
// No-op when the stream is not active.
func (s *WSStream) Stop() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return
	}

	finish := streamFrame{
		Header:  frameHeader{TaskID: newTaskID(), Action: "finish-task", Streaming: "duplex"},
		Payload: framePayload{Input: map[string]any{}},
	}
	s.writeMu.Lock()
	if err := conn.WriteJSON(finish); err != nil {
		log.Printf("Warning: finishing recognition task: %v", err)
	}
	s.writeMu.Unlock()
	conn.Close()
}
