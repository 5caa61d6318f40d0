package card

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// guardMock はSSRFValidatorのモック実装。
type guardMock struct {
	validateFunc func(rawURL string) error
	client       *http.Client
}

func (g *guardMock) NewSafeClient(timeout time.Duration) *http.Client {
	if g.client != nil {
		return g.client
	}
	return &http.Client{Timeout: timeout}
}

func (g *guardMock) ValidateImageURL(rawURL string) error {
	if g.validateFunc != nil {
		return g.validateFunc(rawURL)
	}
	return nil
}

// TestFetchImage_Success は画像が正常に取得されることを検証する。
func TestFetchImage_Success(t *testing.T) {
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageBytes)
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 0)

	data, mimeType, err := fetcher.FetchImage(context.Background(), ts.URL+"/card.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != len(imageBytes) {
		t.Errorf("data length = %d, want %d", len(data), len(imageBytes))
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want %q", mimeType, "image/jpeg")
	}
}

// TestFetchImage_ContentTypeWithCharset はcharset付きContent-Typeが正しく処理されることを検証する。
func TestFetchImage_ContentTypeWithCharset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=utf-8")
		w.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 0)

	_, mimeType, err := fetcher.FetchImage(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mimeType = %q, want %q", mimeType, "image/png")
	}
}

// TestFetchImage_EmptyURL は空URLがnilを返すことを検証する。
func TestFetchImage_EmptyURL(t *testing.T) {
	fetcher := NewImageFetcher(nil, 0)

	data, mimeType, err := fetcher.FetchImage(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil || mimeType != "" {
		t.Errorf("expected nil result for empty URL, got (%v, %q)", data, mimeType)
	}
}

// TestFetchImage_SSRFBlocked はSSRF検証で拒否されたURLがnilを返すことを検証する。
func TestFetchImage_SSRFBlocked(t *testing.T) {
	guard := &guardMock{
		validateFunc: func(rawURL string) error {
			return context.Canceled
		},
	}
	fetcher := NewImageFetcher(guard, 0)

	data, _, err := fetcher.FetchImage(context.Background(), "https://169.254.169.254/image.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for blocked URL, got %v", data)
	}
}

// TestFetchImage_NonImageContentType は画像以外のContent-Typeがnilを返すことを検証する。
func TestFetchImage_NonImageContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 0)

	data, _, err := fetcher.FetchImage(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for non-image, got %v", data)
	}
}

// TestFetchImage_NotFound は404応答がnilを返すことを検証する。
func TestFetchImage_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 0)

	data, _, err := fetcher.FetchImage(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for 404, got %v", data)
	}
}

// TestFetchImage_SizeLimitExceeded はサイズ上限を超える画像がnilを返すことを検証する。
func TestFetchImage_SizeLimitExceeded(t *testing.T) {
	big := strings.Repeat("x", 1024)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(big))
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 512)

	data, _, err := fetcher.FetchImage(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for oversized image, got %d bytes", len(data))
	}
}

// TestFetchImage_SendsUserAgent はUser-Agentヘッダーが送信されることを検証する。
func TestFetchImage_SendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF})
	}))
	defer ts.Close()

	fetcher := NewImageFetcher(&guardMock{client: ts.Client()}, 0)

	if _, _, err := fetcher.FetchImage(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "DeckBuilder/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "DeckBuilder/1.0")
	}
}
