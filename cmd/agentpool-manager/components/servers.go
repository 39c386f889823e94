package components

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"agentpool.run/internal/pool"
)

// httpServer runs until the manager stops.
type httpServer struct {
	log           logr.Logger
	server        *http.Server
	leaderElected bool
}

var _ manager.LeaderElectionRunnable = (*httpServer)(nil)

func newHTTPServer(log logr.Logger, addr string, handler http.Handler, leaderElected bool) *httpServer {
	return &httpServer{
		log: log,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 1 * time.Second,
		},
		leaderElected: leaderElected,
	}
}

func (s *httpServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.server.Close()
	}()

	s.log.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) NeedLeaderElection() bool {
	return s.leaderElected
}

func newPPROFHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// pprof is served on every replica.
func registerPPROF(mgr ctrl.Manager, log logr.Logger, pprofAddr string) error {
	if len(pprofAddr) == 0 {
		return nil
	}

	s := newHTTPServer(log.WithName("pprof"), pprofAddr, newPPROFHandler(), false)
	if err := mgr.Add(s); err != nil {
		return fmt.Errorf("unable to register pprof server: %w", err)
	}
	return nil
}

// RegisterPoolServer serves the pool to the scheduler.
// Only the elected replica fills the pool, so only the elected replica serves it.
func RegisterPoolServer(mgr ctrl.Manager, log logr.Logger, p *pool.Pool, poolAddr string) error {
	if len(poolAddr) == 0 {
		return nil
	}

	log = log.WithName("pool-server")
	s := newHTTPServer(log, poolAddr, pool.NewHandler(log, p), true)
	if err := mgr.Add(s); err != nil {
		return fmt.Errorf("unable to register pool server: %w", err)
	}
	return nil
}
