package server

import (
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/smoreau/docforge/config"
	"github.com/smoreau/docforge/handlers"
	"github.com/smoreau/docforge/job"
	"github.com/smoreau/docforge/objectstore"
)

func SetupRoutes(cfg config.Config, tracker *job.Tracker, store *objectstore.FSStore, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	uploadHandler := handlers.NewUploadHandler(tracker, store, logger,
		cfg.MaxUploadBytes, cfg.DefaultChunkSize, cfg.DefaultOverlapSize)
	r.Handle("/documents/generate", uploadHandler).Methods("POST")

	jobHandler := handlers.NewJobHandler(tracker, logger)
	r.HandleFunc("/jobs/{id}/status", jobHandler.GetStatus).Methods("GET")
	r.HandleFunc("/jobs/{id}/result", jobHandler.GetResult).Methods("GET")
	r.HandleFunc("/jobs/{id}/cancel", jobHandler.Cancel).Methods("POST")

	return r
}

// ServeProduction runs the server behind autocert-managed TLS.
func ServeProduction(n *negroni.Negroni, cfg config.Config) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Port 80 serves ACME "http-01" challenges and redirects everything else
	// to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "")
	log.Fatal(err)
}

// ServeDevelopment runs a plain HTTP server.
func ServeDevelopment(srv *http.Server) {
	log.Printf("Starting development server on %s", srv.Addr)
	err := srv.ListenAndServe()
	log.Fatal(err)
}
