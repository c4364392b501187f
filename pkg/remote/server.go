// Package remote exposes an engine's parameters and state over HTTP so a
// browser or script can stand in for a plugin editor.
package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/plugin"
	"github.com/justyntemme/plugcore/pkg/framework/state"
)

// ChangeNotifier is told about every accepted edit, e.g. a state.AutoSaver.
type ChangeNotifier interface {
	Changed()
}

// Options configures a Server.
type Options struct {
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	OnChange       ChangeNotifier
	Logger         *debug.Logger
}

// Server routes HTTP requests to an engine controller.
type Server struct {
	ctrl    *engine.Controller
	info    plugin.Info
	states  *state.Manager
	notify  ChangeNotifier
	log     *debug.Logger
	origins []string
	router  *mux.Router
}

// NewServer builds the routes for ctrl.
func NewServer(ctrl *engine.Controller, info plugin.Info, states *state.Manager, opts Options) *Server {
	s := &Server{
		ctrl:    ctrl,
		info:    info,
		states:  states,
		notify:  opts.OnChange,
		log:     opts.Logger,
		origins: opts.AllowedOrigins,
		router:  mux.NewRouter().StrictSlash(true),
	}
	if s.log == nil {
		s.log = debug.Default().With("remote")
	}

	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/params", s.handleListParams).Methods(http.MethodGet)
	s.router.HandleFunc("/params/{id:[0-9]+}", s.handleGetParam).Methods(http.MethodGet)
	s.router.HandleFunc("/params/{id:[0-9]+}", s.handleSetParam).Methods(http.MethodPut)
	s.router.HandleFunc("/params/{id:[0-9]+}/modulation", s.handleModulation).Methods(http.MethodPut)
	s.router.HandleFunc("/params/{id:[0-9]+}/gesture/{phase:begin|end}", s.handleGesture).Methods(http.MethodPost)
	s.router.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
	s.router.HandleFunc("/state", s.handlePutState).Methods(http.MethodPut)
	return s
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) changed() {
	if s.notify != nil {
		s.notify.Changed()
	}
}
