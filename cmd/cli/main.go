package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/ttychat/internal/client/cli"
	"github.com/dmitrijs2005/ttychat/internal/client/config"
	"github.com/dmitrijs2005/ttychat/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, closer, err := logging.NewFileLogger(cfg.LogFile, slog.LevelInfo)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx, os.Stdin)

}
