package display

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/sse"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
)

// ErrStreamClosed is returned when the server ends the stream.
var ErrStreamClosed = errors.New("stream closed by server")

// StreamClient consumes the server-sent event stream.
type StreamClient struct {
	url  string
	http *http.Client
}

// NewStreamClient builds a client for the stream under baseURL. The http
// client must not carry a timeout since the response never ends on its own.
func NewStreamClient(baseURL string, httpClient *http.Client) *StreamClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &StreamClient{url: strings.TrimRight(baseURL, "/") + "/stream", http: httpClient}
}

// Subscribe connects and forwards every frame to out until ctx ends or the
// connection drops. It always returns a non-nil error.
func (s *StreamClient) Subscribe(ctx context.Context, out chan<- broadcast.Frame) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect stream: unexpected status %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	var chunk bytes.Buffer
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			chunk.Write(line)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrStreamClosed
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if len(bytes.TrimRight(line, "\r\n")) > 0 {
			continue
		}

		frames, err := decodeFrames(chunk.Bytes())
		chunk.Reset()
		if err != nil {
			return err
		}
		for _, frame := range frames {
			select {
			case out <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// decodeFrames turns one blank-line terminated block into frames.
func decodeFrames(block []byte) ([]broadcast.Frame, error) {
	events, err := sse.Decode(bytes.NewReader(block))
	if err != nil {
		return nil, fmt.Errorf("decode stream: %w", err)
	}
	frames := make([]broadcast.Frame, 0, len(events))
	for _, ev := range events {
		data, ok := ev.Data.(string)
		if !ok || !json.Valid([]byte(data)) {
			continue
		}
		frames = append(frames, broadcast.Frame{Type: broadcast.EventType(ev.Event), Data: json.RawMessage(data)})
	}
	return frames, nil
}
