package main

import (
	"flag"
	"os"
	"strings"

	"github.com/QuantumPixelator/StarshipTerminal/actions"
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

func main() {
	configPath := flag.String("config", "data/config.json", "Path to the settings file (defaults apply when missing)")
	port := flag.Int("port", 0, "Override the configured listen port")
	accountsPath := flag.String("accounts", "data/accounts.json", "Path to the account database")
	savesPath := flag.String("saves", "data/saves", "Directory holding universe and commander snapshots")
	auditPath := flag.String("audit", "", "Optional path to the audit journal (defaults inside the saves directory)")
	adminAccount := flag.String("admin", "admin", "Account granted administrator privileges")
	flag.Parse()

	cfg, err := game.LoadConfig(*configPath)
	if err != nil {
		game.Logger().WithError(err).Fatal("load configuration")
	}
	if *port > 0 {
		cfg.ServerPort = *port
	}

	var options []game.ServerOption
	if trimmed := strings.TrimSpace(*auditPath); trimmed != "" {
		options = append(options, game.WithAuditPath(trimmed))
	}

	if err := game.ListenAndServe(cfg, *accountsPath, *savesPath, *adminAccount, actions.Dispatch, options...); err != nil {
		game.Logger().WithError(err).Error("server exited")
		os.Exit(1)
	}
}
