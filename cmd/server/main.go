/*
main.go - Application entry point.

PURPOSE:
  Initializes and starts the credit-facility demo server: wires the
  SQLite audit store, the HTTP handler, the chi router, and the daily
  sweep scheduler, then serves until interrupted.

STARTUP SEQUENCE:
  1. Parse command-line flags.
  2. Initialize SQLite store.
  3. Create the facility API handler bound to a clock.Provider.
  4. Configure the HTTP router.
  5. Start the daily sweep scheduler.
  6. Serve with graceful shutdown.

COMMAND-LINE FLAGS:
  -port  HTTP server port (default: 8080)
  -db    SQLite database path (default: credit-facility.db);
         use ":memory:" for an ephemeral database.
  -test-clock  Bind the server to a clock.Test anchored at the given
               RFC3339 instant instead of the real wall clock, so demo
               scenarios and the admin advance-time endpoint can drive
               time deterministically (default: "", meaning System).

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, stop the scheduler, close the database, exit.

ENVIRONMENT:
  No environment variables; all configuration is via flags. The only
  filesystem touch is the database file, the only network use serving
  HTTP.

SEE ALSO:
  - api/server.go: router configuration.
  - api/handlers.go: HTTP handlers.
  - store/sqlite.go: audit sink.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/credit-facility/api"
	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/store"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "credit-facility.db", "SQLite database path")
	testClock := flag.String("test-clock", "", "RFC3339 instant to anchor a deterministic test clock instead of the system clock")
	flag.Parse()

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer st.Close()

	var clk clock.Provider = clock.System{}
	if *testClock != "" {
		anchor, err := time.Parse(time.RFC3339, *testClock)
		if err != nil {
			log.Fatalf("invalid -test-clock value: %v", err)
		}
		clk = clock.NewTest(clock.NewInstant(anchor))
		log.Printf("running with a test clock anchored at %s", *testClock)
	}

	handler := api.NewHandler(clk, st)
	router := api.NewRouter(handler)

	scheduler := api.NewDailySweepScheduler(handler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("credit-facility server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server stopped")
}
