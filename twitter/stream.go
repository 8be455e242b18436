package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/tweetkit/httpclient"
	"github.com/kbukum/tweetkit/logger"
	"github.com/kbukum/tweetkit/stream"
)

// Stream is one live streaming connection. Records are delivered to the
// handler on the stream's own goroutine, in arrival order.
type Stream struct {
	id       string
	endpoint string
	status   int

	cancel   context.CancelFunc
	done     chan struct{}
	timedOut atomic.Bool

	mu  sync.Mutex
	err error
}

// ID returns the connection id used in logs.
func (s *Stream) ID() string { return s.id }

// Status returns the HTTP status the connection was opened with.
func (s *Stream) Status() int { return s.status }

// Done is closed when the reader goroutine has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close cancels the connection; records not yet dispatched are dropped.
// It does not wait for the reader to exit and is safe to call from any
// goroutine, including a handler.
func (s *Stream) Close() error {
	s.cancel()
	return nil
}

// Wait blocks until the stream ends and returns Err.
func (s *Stream) Wait() error {
	<-s.done
	return s.Err()
}

// Err returns the error that ended the stream: nil for a clean end of
// stream or a caller cancellation, a timeout error when the connection
// went idle, a connection error otherwise.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Stream opens a long-lived GET on path and feeds its body through a
// stream.Framer. Records of a response below 400 are decoded as Tweet and
// passed to h.OnRecord; records of an error response are decoded as StreamError
// and passed to h.OnError. Undecodable records and failing callbacks are
// logged and skipped. Failing to connect is returned synchronously.
func (c *Client) Stream(ctx context.Context, path string, params map[string]string, h stream.Handler[Tweet, StreamError]) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		id:       uuid.NewString(),
		endpoint: path,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	log := c.log.WithFields(logger.Fields(
		logger.FieldConnectionID, s.id,
		logger.FieldURL, path,
	))

	resp, err := c.adapter.DoStream(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  params,
	})
	if err != nil {
		cancel()
		log.Error("stream connection failed", logger.ErrorFields("connect", err))
		return nil, err
	}
	s.status = resp.StatusCode

	if classified := resp.Classify(); classified != nil {
		log.Warn("stream opened with error status", logger.Fields(
			logger.FieldStatusCode, resp.StatusCode,
			logger.FieldError, classified.Error(),
		))
	} else {
		log.Info("stream connected", logger.Fields(logger.FieldStatusCode, resp.StatusCode))
	}

	c.streamMetrics.ConnectionOpened(ctx, path)
	go c.read(ctx, s, resp, h, log)
	return s, nil
}

// read owns the response body until the stream ends.
func (c *Client) read(ctx context.Context, s *Stream, resp *httpclient.StreamResponse, h stream.Handler[Tweet, StreamError], log *logger.Logger) {
	readTimeout := c.cfg.Stream.ReadTimeout
	idle := time.AfterFunc(readTimeout, func() {
		s.timedOut.Store(true)
		s.cancel()
	})

	framer := stream.NewFramer()
	// Only error statuses carry error documents.
	success := resp.StatusCode < http.StatusBadRequest
	buf := make([]byte, c.cfg.Stream.ReadBufferSize)
	var readErr error

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			// Time spent in callbacks does not count as idle.
			idle.Stop()
			c.streamMetrics.RecordBytes(ctx, s.endpoint, n)

			completed := framer.Feed(buf[:n])
			c.streamMetrics.RecordHeartbeats(ctx, s.endpoint, framer.Heartbeats())
			if completed {
				records := framer.Records()
				c.streamMetrics.RecordRecords(ctx, s.endpoint, len(records))
				for _, record := range records {
					if ctx.Err() != nil {
						break
					}
					c.dispatch(ctx, s, record, success, h, log)
				}
			}
			idle.Reset(readTimeout)
		}
		if err != nil {
			readErr = err
			break
		}
	}

	idle.Stop()
	_ = resp.Close()
	if pending := framer.Pending(); pending > 0 {
		log.Debug("discarding partial record", logger.Fields("bytes", pending))
	}
	c.streamMetrics.ConnectionClosed(context.WithoutCancel(ctx), s.endpoint)

	s.setErr(c.streamEnd(ctx, s, readErr))
	if err := s.Err(); err != nil {
		log.Warn("stream ended", logger.ErrorFields("read", err))
	} else {
		log.Info("stream closed")
	}
	s.cancel()
	close(s.done)
}

// streamEnd maps the read loop's terminal error to the stream's Err.
func (c *Client) streamEnd(ctx context.Context, s *Stream, readErr error) error {
	switch {
	case s.timedOut.Load():
		return httpclient.NewTimeoutError(fmt.Errorf("no data received for %s", c.cfg.Stream.ReadTimeout))
	case errors.Is(readErr, io.EOF), ctx.Err() != nil:
		return nil
	default:
		return httpclient.NewConnectionError(readErr)
	}
}

func (c *Client) dispatch(ctx context.Context, s *Stream, record string, success bool, h stream.Handler[Tweet, StreamError], log *logger.Logger) {
	err := stream.Dispatch(record, success, h)
	if err == nil {
		return
	}

	var (
		decodeErr  *stream.DecodeError
		handlerErr *stream.HandlerError
	)
	switch {
	case errors.As(err, &decodeErr):
		c.streamMetrics.RecordDecodeError(ctx, s.endpoint)
		log.Warn("undecodable stream record", logger.Fields(
			logger.FieldError, decodeErr.Err.Error(),
			"record", truncate(record, 512),
		))
	case errors.As(err, &handlerErr):
		c.streamMetrics.RecordHandlerError(ctx, s.endpoint)
		log.Error("stream handler failed", logger.ErrorFields("dispatch", handlerErr))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
