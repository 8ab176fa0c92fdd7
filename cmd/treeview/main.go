// Command treeview serves recorded growth runs: a JSON API, 3-D skeleton
// charts and the database debug console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/banshee-data/arbor/internal/storage/sqlite"
	"github.com/banshee-data/arbor/internal/version"
	"github.com/banshee-data/arbor/internal/viewer"
)

var (
	listen      = flag.String("listen", ":8090", "HTTP listen address")
	dbFile      = flag.String("db", "tree_runs.db", "Path to the SQLite run database")
	assetsHost  = flag.String("assets-host", "", "Base URL for echarts assets (default: go-echarts CDN)")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("treeview"))
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	db, err := sqlite.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open run database: %v", err)
	}
	defer db.Close()

	ws, err := viewer.NewWebServer(viewer.WebServerConfig{
		Address:    *listen,
		DB:         db,
		AssetsHost: *assetsHost,
	})
	if err != nil {
		log.Fatalf("Failed to create web server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ws.Start(ctx); err != nil {
		log.Printf("web server: %v", err)
	}
}
