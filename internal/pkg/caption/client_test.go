package caption

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCaption(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "generated text", status: http.StatusOK, body: `[{"generated_text":"a dog"}]`, want: "a dog"},
		{name: "empty array", status: http.StatusOK, body: `[]`, want: Fallback},
		{name: "object instead of array", status: http.StatusOK, body: `{}`, want: Fallback},
		{name: "missing field", status: http.StatusOK, body: `[{"label":"dog"}]`, want: Fallback},
		{name: "not json", status: http.StatusOK, body: `<html>`, want: Fallback},
		{name: "model loading", status: http.StatusServiceUnavailable, body: `{"error":"loading"}`, want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "hf_test", time.Second)
			if got := c.Caption(context.Background(), strings.NewReader("img")); got != tt.want {
				t.Errorf("Caption() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptionSendsImageAndKey(t *testing.T) {
	var gotAuth, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, `[{"generated_text":"a cat on a sofa"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Bearer hf_secret", time.Second)
	if got := c.Caption(context.Background(), strings.NewReader("PNGDATA")); got != "a cat on a sofa" {
		t.Fatalf("Caption() = %q", got)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotAuth != "Bearer hf_secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer hf_secret")
	}
	if gotBody != "PNGDATA" {
		t.Errorf("body = %q, want PNGDATA", gotBody)
	}
}

func TestCaptionBareKeyGetsBearerPrefix(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `[{"generated_text":"x"}]`)
	}))
	defer srv.Close()

	NewClient(srv.URL, "hf_bare", time.Second).Caption(context.Background(), strings.NewReader("x"))
	if gotAuth != "Bearer hf_bare" {
		t.Errorf("Authorization = %q, want Bearer hf_bare", gotAuth)
	}
}

func TestCaptionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "hf_test", time.Second)
	if got := c.Caption(context.Background(), strings.NewReader("img")); got != Fallback {
		t.Errorf("Caption() = %q, want %q", got, Fallback)
	}
}

func TestCaptionMissingKeyMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if got := c.Caption(context.Background(), strings.NewReader("img")); got != Fallback {
		t.Errorf("Caption() = %q, want %q", got, Fallback)
	}
	if called {
		t.Error("request sent without api key")
	}
}

func TestCaptionTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `[{"generated_text":"late"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hf_test", 20*time.Millisecond)
	if got := c.Caption(context.Background(), strings.NewReader("img")); got != Fallback {
		t.Errorf("Caption() = %q, want %q", got, Fallback)
	}
}

func TestCaptionURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "remote-bytes")
	})
	mux.HandleFunc("/model", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != "remote-bytes" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `[{"generated_text":"remote image"}]`)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL+"/model", "hf_test", time.Second)
	c.imageClient = srv.Client()
	if got := c.CaptionURL(context.Background(), srv.URL+"/image.png"); got != "remote image" {
		t.Errorf("CaptionURL() = %q, want remote image", got)
	}
	if got := c.CaptionURL(context.Background(), srv.URL+"/missing.png"); got != Fallback {
		t.Errorf("CaptionURL(missing) = %q, want %q", got, Fallback)
	}
}

func TestCaptionURLRefusesInternalAddress(t *testing.T) {
	fetched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		io.WriteString(w, "internal-bytes")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hf_test", time.Second)
	if got := c.CaptionURL(context.Background(), srv.URL+"/admin.png"); got != Fallback {
		t.Errorf("CaptionURL(loopback) = %q, want %q", got, Fallback)
	}
	if fetched {
		t.Error("loopback address should not be fetched")
	}
}

func TestCheckImageURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://img.example.com/dog.png", true},
		{"http://93.184.216.34/cat.jpg", true},
		{"ftp://img.example.com/dog.png", false},
		{"file:///etc/passwd", false},
		{"gopher://10.0.0.1/", false},
		{"http://localhost:6379/", false},
		{"http://api.localhost/", false},
		{"http://127.0.0.1:8080/metrics", false},
		{"http://10.1.2.3/", false},
		{"http://192.168.0.10/", false},
		{"http://169.254.169.254/latest/meta-data/", false},
		{"http://[::1]/", false},
		{"http://[::ffff:127.0.0.1]/", false},
		{"http://0.0.0.0/", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		err := CheckImageURL(tt.url)
		if (err == nil) != tt.ok {
			t.Errorf("CheckImageURL(%q) error = %v, want ok %v", tt.url, err, tt.ok)
		}
	}
}
