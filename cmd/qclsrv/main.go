// Command qclsrv runs QCL's compiler as an HTTP compile-as-a-service,
// reading its bind address and defaults from QCL_* environment variables.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/qclabs/qcl/internal/config"
	"github.com/qclabs/qcl/internal/logger"
	"github.com/qclabs/qcl/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "qclsrv: loading config: %v\n", err)
		os.Exit(1)
	}

	l := logger.NewLogger(logger.LoggerOptions{Debug: cfg.LogDebug})

	_, portStr, err := net.SplitHostPort(cfg.ServerAddr)
	if err != nil {
		l.Error().Err(err).Str("addr", cfg.ServerAddr).Msg("invalid server_addr")
		os.Exit(1)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		l.Error().Err(err).Str("port", portStr).Msg("invalid port")
		os.Exit(1)
	}

	srv := server.New(server.Options{Logger: l, CORSAllowOrigin: "*"})
	if err := srv.Start(port, false); err != nil {
		l.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
