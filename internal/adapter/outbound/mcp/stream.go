package mcp

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/meridian-mcp/meridian/pkg/mcp"
)

// streamState tracks the response-framing state machine:
// readingBody -> framingDetected(event-stream) -> envelopeParsed | timeout | malformed.
// Plain-JSON framing is handled directly in post; this file owns the
// event-stream leg.
type streamState int

const (
	stateReading streamState = iota
	stateEnvelopeParsed
	stateTimeout
	stateMalformed
)

// chunk is one read from the response body.
type chunk struct {
	data []byte
	err  error
}

// readStream assembles the JSON-RPC envelope out of an event-stream-framed
// response. It reads incrementally with a per-chunk deadline inside the
// context's overall deadline and returns as soon as a syntactically complete
// envelope has been assembled; it must not wait for the server to close
// the connection, because some servers hold the stream open indefinitely.
//
// If the deadline passes without a parsable envelope, one direct whole-body
// parse of everything read so far is attempted as a last resort.
func (c *Client) readStream(ctx context.Context, body io.Reader) (*mcp.Envelope, error) {
	chunks := make(chan chunk)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := body.Read(buf)
			out := chunk{err: err}
			if n > 0 {
				out.data = append([]byte(nil), buf[:n]...)
			}
			select {
			case chunks <- out:
			case <-quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var raw bytes.Buffer    // everything read, for the last-resort parse
	var events bytes.Buffer // concatenated data: payloads
	var pending []byte      // bytes not yet terminated by a newline

	state := stateReading
	timer := time.NewTimer(c.chunkTimeout)
	defer timer.Stop()

	for state == stateReading {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.chunkTimeout)

		select {
		case <-ctx.Done():
			state = stateTimeout
		case <-timer.C:
			// No bytes within the chunk deadline. The server may be
			// holding the stream open after sending the envelope.
			state = stateTimeout
		case ck := <-chunks:
			if len(ck.data) > 0 {
				if raw.Len()+len(ck.data) > maxResponseBodySize {
					state = stateMalformed
					break
				}
				raw.Write(ck.data)
				pending = append(pending, ck.data...)
				pending = consumeLines(pending, &events)
				if env, complete := parseEvents(&events); complete {
					return env, nil
				}
			}
			if ck.err != nil {
				// Stream closed. Flush any unterminated final line and
				// take a last parse attempt before declaring malformed.
				consumeLines(append(pending, '\n'), &events)
				if env, complete := parseEvents(&events); complete {
					return env, nil
				}
				state = stateMalformed
			}
		}
	}

	// Last resort: a direct whole-body parse of everything received.
	if env, complete := mcp.ParseEnvelope(raw.Bytes()); complete {
		return env, nil
	}
	if env, complete := parseEvents(&events); complete {
		return env, nil
	}

	if state == stateTimeout {
		return nil, ErrStreamTimeout
	}
	return nil, ErrMalformedStream
}

// consumeLines splits completed lines off pending, appending SSE data
// payloads to events. Returns the remaining unterminated bytes.
func consumeLines(pending []byte, events *bytes.Buffer) []byte {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return pending
		}
		line := bytes.TrimRight(pending[:idx], "\r")
		pending = pending[idx+1:]

		if payload, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			events.Write(bytes.TrimLeft(payload, " "))
		}
		// Comment lines (":keepalive"), "event:" and "id:" fields, and
		// blank event separators carry no envelope bytes.
	}
}

// parseEvents attempts to parse the accumulated data payloads as a complete
// envelope.
func parseEvents(events *bytes.Buffer) (*mcp.Envelope, bool) {
	if events.Len() == 0 {
		return nil, false
	}
	return mcp.ParseEnvelope(events.Bytes())
}
