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

	"docfields/config"
	"docfields/fieldconfig"
	"docfields/handlers"
	"docfields/pipeline"
	"docfields/session"
)

// SetupRoutes wires the HTTP surface: config upload, document upload,
// session status, health.
func SetupRoutes(cfg config.Config, store session.Store, orchestrator *pipeline.Orchestrator, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	validator := fieldconfig.NewValidator(cfg.MaxConfigSize)
	locks := session.NewKeyLock()

	configHandler := handlers.NewConfigHandler(validator, store, cfg.SessionTTL, logger)
	documentHandler := handlers.NewDocumentHandler(store, locks, orchestrator, cfg.MaxUploadSize, logger)
	sessionHandler := handlers.NewSessionHandler(store, logger)
	healthHandler := handlers.NewHealthHandler(store)

	r.Handle("/upload_config", configHandler).Methods("POST")
	r.Handle("/upload_documents", documentHandler).Methods("POST")
	r.Handle("/session/{id}", sessionHandler).Methods("GET")
	r.Handle("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", handlers.Home).Methods("GET")

	return r
}

// ServeProduction starts the server behind autocert-managed TLS.
func ServeProduction(n *negroni.Negroni, domains []string, certCacheDir string) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(certCacheDir),
	}

	// Port 80 answers ACME "http-01" challenges and redirects everything
	// else to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
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
		Addr:         ":443",
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server on a plain listener.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
