// Package server exposes a budget over HTTP.
//
// Every store gets the same four endpoints under /api/{kind}/: add, edit and
// delete are POST requests with form parameters, list is a GET returning one
// record per line. Forms posted by a web page carry a "server" parameter and
// are redirected back to their "back_page" with the outcome in the query.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/etnz/budget"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is the version reported by /api/server/version/.
const Version = "1.0.2"

// supportedClients lists the client versions this server can talk to.
var supportedClients = []string{"1.0", "1.0.1", "1.0.2"}

// Realm is the basic auth realm in secure mode.
const Realm = "budgetwarrior"

// Options configures a Server.
type Options struct {
	// Secure requires basic auth with User and Password on every endpoint.
	Secure   bool
	User     string
	Password string

	// FlushPerRequest persists the stores after each successful mutation.
	// Otherwise they are only persisted by Close.
	FlushPerRequest bool

	// DefaultCurrency is the target of /api/currency/rate/ when "to" is missing.
	// Defaults to the reference currency of the rates.
	DefaultCurrency string

	// ShutdownTimeout bounds the graceful shutdown of Run. Defaults to 5s.
	ShutdownTimeout time.Duration
}

// Server serves a budget.
type Server struct {
	budget *budget.Budget
	opts   Options
	log    *zap.SugaredLogger
	engine *gin.Engine
}

// New returns a server for b. A nil logger discards logs.
func New(b *budget.Budget, opts Options, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = b.Rates.Reference()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{budget: b, opts: opts, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	if opts.Secure {
		r.Use(gin.BasicAuthForRealm(gin.Accounts{opts.User: opts.Password}, Realm))
	}
	if opts.FlushPerRequest {
		r.Use(flushAfterMutation(b, log))
	}
	s.routes(r.Group("/api"))
	s.engine = r
	return s
}

func (s *Server) routes(api *gin.RouterGroup) {
	api.GET("/server/up/", s.up)
	api.GET("/server/version/", s.version)
	api.POST("/server/version/support/", s.versionSupport)

	b := s.budget
	crud(api, b.Accounts, "account", decodeAccount)
	crud(api, b.Expenses, "expense", decodeExpense(b))
	crud(api, b.Earnings, "earning", decodeEarning(b))
	crud(api, b.Assets, "asset", decodeAsset)
	crud(api, b.AssetValues, "asset value", decodeAssetValue(b))
	api.POST("/asset_values/batch/", s.batchAssetValues)
	crud(api, b.Debts, "debt", decodeDebt)
	crud(api, b.Fortunes, "fortune", decodeFortune)
	crud(api, b.Wishes, "wish", decodeWish)
	crud(api, b.Recurrings, "recurring", decodeRecurring(b))
	crud(api, b.Objectives, "objective", decodeObjective)

	api.GET("/currency/rate/", s.rate)
	api.POST("/currency/invalidate/", s.invalidateRates)
}

// Handler returns the http handler serving the api.
func (s *Server) Handler() http.Handler { return s.engine }

// Routes lists the registered endpoints.
func (s *Server) Routes() gin.RoutesInfo { return s.engine.Routes() }

// Run serves on addr until ctx is done, then shuts down gracefully.
// The budget is not closed.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("start-server", "addr", addr, "secure", s.opts.Secure)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.log.Infow("stop-server", "addr", addr)
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
