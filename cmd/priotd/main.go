// Command priotd runs the PRIoT agent process: it parses the process
// configuration, wires an agent.Agent, and drives its dispatch loop until
// signalled to stop, per spec §6's process surface.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/duniansampa/priot/agent"
	"github.com/duniansampa/priot/agentx"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		listenAddr = flag.String("listen", ":10161", "AgentX master listen address")
		logLevel   = flag.String("log-level", "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	)
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.WithError(err).Error("invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	transport, err := newTCPTransport(*listenAddr, log)
	if err != nil {
		log.WithError(err).WithField("addr", *listenAddr).Error("failed to bind agentx listener")
		return 1
	}
	defer transport.Close()

	a := agent.New(transport, agent.WithHooks(loggingHooks(log)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("addr", *listenAddr).Info("priotd starting")
	if err := a.Run(ctx, transport); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("agent dispatch loop aborted")
		return 2
	}
	log.Info("priotd shutting down")
	return 0
}

// newTCPTransport and its Next/Reply/Send methods live in multiplexer.go;
// split out so main stays a thin composition root, matching the teacher's
// own cmd entrypoints.
var (
	_ agentx.Transport  = (*tcpMultiplexer)(nil)
	_ agent.Multiplexer = (*tcpMultiplexer)(nil)
)
