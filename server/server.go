package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"pdfview/cli"
	"pdfview/doc"
	"pdfview/poppler"
	"pdfview/routes"
	"pdfview/store"
)

// Run starts the HTTP search server over the indexed library. Documents are
// opened through poppler on first search and held until shutdown.
func Run(config *cli.Config) {
	st, err := store.Open(config.Database)
	if err != nil {
		log.Fatalf("unable to open library %s: %v\n", config.Database, err)
	}
	defer st.Close()

	if err := st.Init(context.Background()); err != nil {
		log.Fatalf("unable to initialize library: %v\n", err)
	}

	reg := routes.NewRegistry(func(path string) (doc.CharacterExtractor, error) {
		return poppler.Open(path)
	}, config.Concurrency)
	defer reg.Close()

	mux := http.NewServeMux()
	routes.Setup(mux, st, reg)

	handler := routes.Logger(os.Stdout)(routes.RateLimit(20, 40)(mux))

	// Customize the timeouts; searches over large documents still fit
	// comfortably inside them.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handler,
		ReadTimeout:       time.Second * 10,
		WriteTimeout:      time.Second * 10,
		ReadHeaderTimeout: time.Second * 5,
	}

	defer GracefulShutdown(server)

	log.Printf("Listening on http://0.0.0.0:%d\n", config.Port)

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server terminated with error: %v\n", err)
	}
}

// GracefulShutdown waits for os.Interrupt and shuts the server down,
// allowing pending connections the given timeout (default 10 seconds).
func GracefulShutdown(server *http.Server, timeout ...time.Duration) {
	t := 10 * time.Second
	if len(timeout) > 0 {
		t = timeout[0]
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	log.Println("waiting on os.Interrupt")

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), t)
	defer cancel()

	log.Println("Shutting down the server")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
	log.Println("shutting down gracefully")
}
