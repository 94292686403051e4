package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakhi-assistant/sakhi/internal/web/handlers"
)

func (s *Server) setupRoutes(ids handlers.IdentityStore, chat handlers.ChatFunc, rec handlers.RecognitionControl) {
	identitiesHandler := handlers.NewIdentitiesHandler(ids)
	chatHandler := handlers.NewChatHandler(chat)
	recognitionHandler := handlers.NewRecognitionHandler(rec)

	// Health check first so monitoring never races route setup.
	s.router.Get("/api/health", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register-face", identitiesHandler.Register)
		r.Get("/identities", identitiesHandler.List)
		r.Post("/clear-data", identitiesHandler.Clear)
		r.Post("/chat-handler", chatHandler.Handle)
		r.Post("/recognition/start", recognitionHandler.Start)
		r.Post("/recognition/stop", recognitionHandler.Stop)
	})

	s.router.Get("/", s.serveStatus)
}

// serveStatus answers the bare root with a tiny status page so a kiosk
// browser pointed at the server shows something sensible.
func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Sakhi</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Sakhi</h1>
        <p>The assistant API is running.</p>
        <p>Health check at <a href="/api/health">/api/health</a></p>
    </div>
</body>
</html>`))
}
