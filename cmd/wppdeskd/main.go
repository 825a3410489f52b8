package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/wppdesk/internal/daemon"
	"github.com/matheus3301/wppdesk/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default $WPPDESK_HOME/config.toml)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			ProfileName: name,
			ConfigPath:  *configFlag,
			LogLevel:    *logLevel,
		}),
		fx.NopLogger,
	)
	app.Run()
}
