// Command server runs the ttychat document store: the gRPC endpoint that
// carries signaling rooms, chat messages and push fan-out, backed by
// PostgreSQL.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/ttychat/internal/server"
	"github.com/dmitrijs2005/ttychat/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.AccessKey == "" {
		log.Fatal("access key must not be empty")
	}

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("start server: %v", err)
	}

	app.Run(ctx)
}
