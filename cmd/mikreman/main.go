package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/safrinnetwork/MikReMan/config"
	"github.com/safrinnetwork/MikReMan/internal/adminapi"
	"github.com/safrinnetwork/MikReMan/internal/app"
)

var (
	configFile = flag.String("c", "mikreman.yml", "configuration file")
	showVer    = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println("mikreman", version)
		return
	}

	path := *configFile
	if env := os.Getenv("MIKREMAN_CONFIG"); env != "" {
		path = env
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store := config.NewStore(path, cfg)

	application := app.NewApplication(store)
	if err := application.Init(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	server := adminapi.NewServer(application.Orchestrator(), application.BackupSink())
	if err := server.Start(cfg.API.Listen); err != nil {
		zap.S().Fatalf("admin api stopped: %v", err)
	}
}
