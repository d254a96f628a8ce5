package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smallnest/ringbuffer"
	"golang.org/x/sync/errgroup"

	"github.com/stupside/pitchside/internal/media"
)

const (
	chunkSize     = 32 << 10
	shutdownGrace = 5 * time.Second
)

// ServerConfig describes what a Server exposes and where.
type ServerConfig struct {
	// Host is the local address devices can reach, without a port.
	Host       string
	Format     media.Format
	Headers    map[string]string
	BufferSize int
}

// Server relays a byte stream to one HTTP client at a time through a
// bounded buffer. A full buffer blocks the producer.
type Server struct {
	cfg      ServerConfig
	buf      *ringbuffer.RingBuffer
	listener net.Listener
	srv      *http.Server

	active   atomic.Bool
	pumped   atomic.Bool
	drained  chan struct{}
	drainOne sync.Once
}

// Listen binds a Server on an ephemeral port of cfg.Host.
func Listen(cfg ServerConfig) (*Server, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, "0"))
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.Host, err)
	}

	s := &Server{
		cfg:      cfg,
		buf:      ringbuffer.New(cfg.BufferSize).SetBlocking(true),
		listener: ln,
		drained:  make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream"+cfg.Format.Extension, s.handle)
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	return s, nil
}

// URL is where devices fetch the stream.
func (s *Server) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   s.listener.Addr().String(),
		Path:   "/stream" + s.cfg.Format.Extension,
	}
}

// Serve copies src into the buffer and serves it until a client has read it
// to the end or ctx is done. src is closed on cancellation when it is an
// io.Closer. Cancellation is not an error.
func (s *Server) Serve(ctx context.Context, src io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer s.pumped.Store(true)
		if _, err := io.Copy(s.buf, src); err != nil {
			s.buf.CloseWithError(err)
			return fmt.Errorf("buffering stream: %w", err)
		}
		s.buf.CloseWriter()
		return nil
	})

	g.Go(func() error {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving stream: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.buf.CloseWithError(gctx.Err())
			if c, ok := src.(io.Closer); ok {
				c.Close()
			}
			return s.srv.Close()
		case <-s.drained:
			// Let the draining response finish before closing its connection.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return s.srv.Shutdown(shutdownCtx)
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close releases the listener of a Server that was never served.
func (s *Server) Close() error {
	return s.listener.Close()
}

// WaitForData blocks until n bytes are buffered, the producer has finished,
// or ctx is done.
func (s *Server) WaitForData(ctx context.Context, n int) error {
	n = min(n, s.cfg.BufferSize)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.buf.Length() >= n || s.pumped.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", s.cfg.Format.ContentType)
	for k, v := range s.cfg.Headers {
		w.Header().Set(k, v)
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	if !s.active.CompareAndSwap(false, true) {
		http.Error(w, "stream already active", http.StatusServiceUnavailable)
		return
	}
	defer s.active.Store(false)

	slog.DebugContext(r.Context(), "stream client connected", "remote", r.RemoteAddr)

	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	chunk := make([]byte, chunkSize)
	for {
		n, err := s.buf.Read(chunk)
		if n > 0 {
			if _, werr := w.Write(chunk[:n]); werr != nil {
				// The device went away; keep serving for a reconnect.
				slog.DebugContext(r.Context(), "stream client disconnected", "remote", r.RemoteAddr, "error", werr)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.drainOne.Do(func() { close(s.drained) })
			}
			return
		}
	}
}
