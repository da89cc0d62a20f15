package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"tush00nka/captionchat/internal/config"
	"tush00nka/captionchat/internal/handler"
	"tush00nka/captionchat/internal/pkg/metrics"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers все HTTP обработчики сервера; Files только для хранилища в памяти.
type Handlers struct {
	Auth    *handler.Authenticator
	User    *handler.UserHandler
	Chat    *handler.ChatHandler
	Message *handler.MessageHandler
	Catalog *handler.CatalogHandler
	Caption *handler.CaptionHandler
	Scratch *handler.ScratchHandler
	WS      *handler.WSHandler
	Files   *handler.FileHandler
}

type Server struct {
	router  *mux.Router
	origins []string
	srv     *http.Server
}

func NewServer(cfg *config.Config, h Handlers) *Server {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	// Public routes
	router.HandleFunc("/ping", handler.Ping).Methods("GET", "OPTIONS")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	h.User.RegisterRoutes(router)
	if h.Files != nil {
		h.Files.RegisterRoutes(router)
	}

	// Protected routes; подроутер регистрируется последним, чтобы публичные маршруты матчились первыми
	private := router.NewRoute().Subrouter()
	private.Use(h.Auth.Middleware)
	h.User.RegisterPrivateRoutes(private)
	h.Chat.RegisterRoutes(private)
	h.Message.RegisterRoutes(private)
	h.Catalog.RegisterRoutes(private)
	h.Caption.RegisterRoutes(private)
	h.Scratch.RegisterRoutes(private)
	h.WS.RegisterRoutes(private)

	origins := cfg.Origins()
	if cfg.IsDevelopment() {
		origins = []string{"*"}
	}

	return &Server{router: router, origins: origins}
}

// Handler роутер с CORS, access log и трейсингом.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)

	return otelhttp.NewHandler(handlers.LoggingHandler(os.Stdout, cors(s.router)), "http.server")
}

// Run блокируется до отмены ctx или ошибки сервера.
func (s *Server) Run(ctx context.Context, port string) error {
	s.srv = &http.Server{
		Handler:     s.Handler(),
		Addr:        ":" + port,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout не задан: WebSocket соединения живут долго
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", port)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
