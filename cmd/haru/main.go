package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"haru/internal/config"
	"haru/internal/kvstore"
	"haru/internal/theme"
	"haru/internal/todo"
	"haru/internal/ui"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "haru"})

	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := kvstore.Open(cfg.DBPath, logger)
	if err != nil {
		fmt.Printf("failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	repo := todo.NewRepository(store)
	themes := theme.NewController(store)

	if err := ui.Run(repo, themes, cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
