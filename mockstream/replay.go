package mockstream

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tweetkit/logger"
)

const unauthorizedDocument = `{"title":"Unauthorized","type":"about:blank","status":401,"detail":"Unauthorized"}` + "\r\n"

func (s *Server) replay(c *gin.Context) {
	if s.config.BearerToken != "" && c.GetHeader("Authorization") != "Bearer "+s.config.BearerToken {
		c.Data(http.StatusUnauthorized, "application/json", []byte(unauthorizedDocument))
		return
	}

	s.active.Add(1)
	s.served.Add(1)
	defer s.active.Add(-1)

	c.Header("Content-Type", "application/json")
	c.Status(s.config.Status)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ctx := c.Request.Context()
	body := s.recording.Encode(s.config.HeartbeatEvery)
	rng := s.newRand()

	for pass := 1; ; pass++ {
		if err := s.writeChunks(ctx, c.Writer, splitChunks(body, s.config.MinChunk, s.config.MaxChunk, rng)); err != nil {
			s.log.Debug("client went away", logger.Fields("pass", pass, logger.FieldError, err.Error()))
			return
		}
		if !s.config.Loop || len(body) == 0 {
			return
		}
	}
}

func (s *Server) writeChunks(ctx context.Context, w gin.ResponseWriter, chunks [][]byte) error {
	for _, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		w.Flush()
		if err := sleep(ctx, s.config.Interval); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) newRand() *rand.Rand {
	seed := s.config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
