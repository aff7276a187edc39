package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pokuclick/autocert"
	"pokuclick/interfaces"
)

var _ interfaces.BackgroundService = (*HTTPServer)(nil)

const shutdownTimeout = 5 * time.Second

// HTTPServer serves the engine routes, over TLS when a certificate manager is set.
type HTTPServer struct {
	addr     string
	acmeAddr string
	handler  http.Handler
	certs    *autocert.Manager
	logger   *zap.Logger

	// listening receives the bound address once the listener is up.
	listening chan string
}

// NewHTTPServer creates an HTTPServer. certs may be nil for plain HTTP.
func NewHTTPServer(addr, acmeAddr string, handler http.Handler, certs *autocert.Manager, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		addr:      addr,
		acmeAddr:  acmeAddr,
		handler:   handler,
		certs:     certs,
		logger:    logger,
		listening: make(chan string, 1),
	}
}

// Run serves until ctx is cancelled, then shuts the servers down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listening <- ln.Addr().String()

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{server}
	errc := make(chan error, 2)

	if s.certs != nil {
		server.TLSConfig = s.certs.TLSConfig()

		challenge := &http.Server{
			Addr:              s.acmeAddr,
			Handler:           s.certs.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, challenge)
		go func() {
			s.logger.Info("Starting HTTP server for ACME challenges", zap.String("addr", s.acmeAddr))
			errc <- challenge.ListenAndServe()
		}()
		go func() {
			s.logger.Info("Starting HTTPS server",
				zap.String("addr", ln.Addr().String()),
				zap.Strings("domains", s.certs.GetDomains()))
			errc <- server.ServeTLS(ln, "", "")
		}()
	} else {
		go func() {
			s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
			errc <- server.Serve(ln)
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			shutdown(servers)
			return err
		}
	}

	shutdown(servers)
	return ctx.Err()
}

// Listening returns a channel that yields the bound address.
func (s *HTTPServer) Listening() <-chan string {
	return s.listening
}

func shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(ctx)
	}
}
