// Package httpserver bridges inbound HTTP traffic onto the host event bus.
// Requests are published on the http-request channel; whichever subscriber
// responds first produces the HTTP response, and requests nobody claims fall
// through to a 404.
package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

const (
	maxBodyBytes      int64 = 1 << 20 // 1 MiB
	readHeaderTimeout       = 5 * time.Second
	bindMaxElapsed          = 10 * time.Second
)

// Server is the host HTTP transport.
type Server struct {
	addr           string
	bus            eventbus.Bus
	logger         observability.Logger
	respondTimeout time.Duration

	listener net.Listener
	server   *http.Server
}

// New creates a server listening on addr. respondTimeout bounds how long a
// request waits for an asynchronous responder after synchronous bus delivery
// has finished.
func New(addr string, bus eventbus.Bus, logger observability.Logger, respondTimeout time.Duration) *Server {
	if respondTimeout <= 0 {
		respondTimeout = 250 * time.Millisecond
	}
	s := new(Server)
	s.addr = addr
	s.bus = bus
	s.logger = logger
	s.respondTimeout = respondTimeout
	return s
}

// Name implements the host service contract.
func (s *Server) Name() string { return "HttpServer" }

// Start binds the listener, retrying transient bind failures, and begins
// serving in the background.
func (s *Server) Start(ctx context.Context) error {
	listener, err := backoff.Retry(ctx, func() (net.Listener, error) {
		return net.Listen("tcp", s.addr)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(bindMaxElapsed))
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{Handler: s, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server terminated", observability.F("err", err))
		}
	}()
	s.logger.Info("http server listening", observability.F("addr", listener.Addr().String()))
	return nil
}

// Stop drains the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ServeHTTP publishes the request on the bus and relays the first response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	req := schema.NewHTTPRequest(r.Method, r.URL.Path).WithBody(body, r.Header.Get("Content-Type"))
	for key := range r.Header {
		req.SetHeader(key, r.Header.Get(key))
	}

	replies := make(chan *schema.HTTPObject, 1)
	evt := schema.NewEvent(schema.ChannelHTTPRequest, req).WithReply(func(v any) {
		if resp, ok := v.(*schema.HTTPObject); ok {
			select {
			case replies <- resp:
			default:
			}
		}
	})

	if err := s.bus.Publish(r.Context(), evt); err != nil {
		http.Error(w, "bus unavailable", http.StatusServiceUnavailable)
		return
	}

	// Synchronous handlers have already replied by now; the timer only gives
	// asynchronous responders a short grace window.
	var timeout <-chan time.Time
	if !evt.Acknowledged() {
		timer := time.NewTimer(s.respondTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp := <-replies:
		writeResponse(w, resp)
	case <-timeout:
		http.NotFound(w, r)
	case <-r.Context().Done():
	}
}

func writeResponse(w http.ResponseWriter, resp *schema.HTTPObject) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}
