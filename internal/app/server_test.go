package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "tush00nka/captionchat/docs"
	"tush00nka/captionchat/internal/config"
	"tush00nka/captionchat/internal/handler"
)

func newTestServer(env string) *Server {
	cfg := &config.Config{
		Environment:    env,
		AllowedOrigins: "http://localhost:3000",
	}
	return NewServer(cfg, Handlers{
		Auth:    &handler.Authenticator{},
		User:    &handler.UserHandler{},
		Chat:    &handler.ChatHandler{},
		Message: &handler.MessageHandler{},
		Catalog: &handler.CatalogHandler{},
		Caption: &handler.CaptionHandler{},
		Scratch: &handler.ScratchHandler{},
		WS:      &handler.WSHandler{},
	})
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer("development")

	req := httptest.NewRequest("OPTIONS", "/chats", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
	if rr.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers should not be empty for OPTIONS request")
	}
}

func TestCORSWithActualRequest(t *testing.T) {
	server := newTestServer("development")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
}

func TestCORSRejectsUnknownOriginInProduction(t *testing.T) {
	server := newTestServer("production")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %v, want empty", got)
	}

	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %v, want http://localhost:3000", got)
	}
}

func TestPublicEndpoints(t *testing.T) {
	server := newTestServer("development")

	for _, path := range []string{"/metrics", "/swagger/doc.json"} {
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestSwaggerDocIsValidJSON(t *testing.T) {
	server := newTestServer("development")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/swagger/doc.json", nil))

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if doc.Info.Title != "Caption Chat" {
		t.Errorf("title = %q, want Caption Chat", doc.Info.Title)
	}
	if _, ok := doc.Paths["/chats/{id}/messages"]; !ok {
		t.Error("doc.json is missing /chats/{id}/messages")
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	server := newTestServer("development")

	for _, path := range []string{"/chats", "/me", "/catalogs", "/scratch/messages"} {
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rr.Code)
		}
	}
}
