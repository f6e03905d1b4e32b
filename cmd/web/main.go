// Web server for flakestry
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"

	"github.com/flakestry/flakestry/internal/config"
	"github.com/flakestry/flakestry/internal/database"
	"github.com/flakestry/flakestry/internal/page"
	"github.com/flakestry/flakestry/internal/web"
)

var (
	// command-line flags
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	dbDriver    string
	dbDSN       string
	pprofAddr   string
	renderOnly  bool
	importFile  string
	webdebug    bool
	configFile  string
)

var Prof *prof.Profiler

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", "", "YAML configuration file (flags and environment override it)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 3000)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.BoolVar(&webdebug, "webdebug", false, "Run gin in debug mode")
	flag.StringVar(&dbDriver, "dbdriver", "", "Database driver: sqlite3 or postgres (default: sqlite3, or postgres when DATABASE_URL is set)")
	flag.StringVar(&dbDSN, "dbdsn", "", "Database file (sqlite3) or connection string (postgres)")
	flag.StringVar(&pprofAddr, "pprof", "", "Serve CPU/memory profiles on this address (e.g. :51111)")
	flag.BoolVar(&renderOnly, "render", false, "Write the home page HTML to stdout and exit")
	flag.StringVar(&importFile, "import", "", "Import releases from a JSON file (array of releases) and exit")
	flag.Parse()

	if renderOnly {
		if err := page.Render(os.Stdout, page.Home()); err != nil {
			log.Fatalf("[WEB]: %v", err)
		}
		fmt.Println()
		os.Exit(0)
	}

	log.Printf("Starting flakestry web server (version: %s)", appVersion)

	if pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(pprofAddr)
		Prof.StartMemProfile(5*time.Minute, 30*time.Second)
		log.Printf("[WEB]: Profiler listening on %s", pprofAddr)
	}

	mainConfig := config.NewDefaultConfig()
	if configFile != "" {
		if err := mainConfig.LoadFile(configFile); err != nil {
			log.Fatalf("[WEB]: %v", err)
		}
	}
	if err := mainConfig.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("[WEB]: %v", err)
	}
	applyFlags(mainConfig)
	if err := mainConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	log.Printf("[WEB]: Using WEB configuration: %#v", mainConfig.Web)

	db, err := database.OpenDatabase(database.DBConfigFrom(mainConfig.Database))
	if err != nil {
		log.Fatalf("[WEB]: Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("[WEB]: Database driver: %s", db.Driver())

	if err := db.Migrate(); err != nil {
		log.Fatalf("[WEB]: Failed to apply database migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if importFile != "" {
		log.Printf("[WEB]: Importing releases from %s", importFile)
		count, err := importReleases(ctx, db, importFile)
		if err != nil {
			log.Fatalf("[WEB]: Failed to import releases: %v", err)
		}
		log.Printf("[WEB]: Imported %d releases", count)
		return
	}

	server, err := web.NewServer(db, &mainConfig.Web)
	if err != nil {
		log.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go flushOnSignal(ctx, hup, server.Cache)

	protocol := "http"
	if mainConfig.Web.SSL {
		protocol = "https"
	}
	log.Printf("[WEB]: Starting flakestry web server on %s://localhost:%d", protocol, server.GetPort())

	if err := server.Start(ctx); err != nil {
		log.Fatalf("[WEB]: Web server error: %v", err)
	}
	log.Printf("[WEB]: Server stopped")
}
