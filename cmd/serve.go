package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/budget/server"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the budget over http" }
func (*serveCmd) Usage() string {
	return `bw serve [-addr <host:port>]

  Serves the budget api until interrupted. Changes are saved after every
  request when flush_per_request is set in the configuration, and always
  when the server stops.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Address to listen on (defaults to the configuration, localhost:8080)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openOrFail()
	if a == nil {
		return status
	}
	addr := c.addr
	if addr == "" {
		addr = a.cfg.Listen
	}

	if !*Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	s := server.New(a.budget, server.Options{
		Secure:          a.cfg.Secure,
		User:            a.cfg.WebUser,
		Password:        a.cfg.WebPassword,
		FlushPerRequest: a.cfg.FlushPerRequest,
		DefaultCurrency: a.cfg.DefaultCurrency,
	}, a.log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(os.Stderr, "Serving budget on http://%s/api/\n", addr)
	if err := s.Run(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		status = subcommands.ExitFailure
	}
	return closeOrFail(a, status)
}
