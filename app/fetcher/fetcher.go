package fetcher

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	URL        string
	StatusText string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.StatusText)
}

// Page is a fetched document decoded to UTF-8.
type Page struct {
	URL         string
	ContentType string
	Text        string
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Get downloads url and decodes the body using the charset declared in the
// Content-Type header. An empty userAgent falls back to the default one.
func (f *Fetcher) Get(ctx context.Context, url, userAgent string) (*Page, error) {
	resp, err := f.do(ctx, url, userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, StatusText: fmt.Sprintf("failed to read response body: %v", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	text, err := Decode(data, contentType)
	if err != nil {
		return nil, &FetchError{URL: url, StatusText: fmt.Sprintf("failed to decode response body: %v", err)}
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	slog.Debug("Page fetched", "url", url, "final_url", finalURL, "content_type", contentType, "length", len(text))

	return &Page{
		URL:         finalURL,
		ContentType: contentType,
		Text:        text,
	}, nil
}

// GetJSON downloads url and decodes the JSON body into v.
func (f *Fetcher) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := f.do(ctx, url, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return nil
}

func (f *Fetcher) do(ctx context.Context, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, StatusText: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("User-Agent", cmp.Or(userAgent, f.userAgent))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, StatusText: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusText: resp.Status}
	}

	return resp, nil
}

// Decode converts data to UTF-8 text. The charset parameter of contentType
// selects the source encoding; a missing or unknown charset means UTF-8.
func Decode(data []byte, contentType string) (string, error) {
	enc := charsetEncoding(contentType)
	if enc == nil {
		return string(data), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(decoded, []byte("\ufeff"))), nil
}

func charsetEncoding(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}

	charset := strings.TrimSpace(params["charset"])
	if charset == "" {
		return nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		slog.Debug("Unknown charset, decoding as UTF-8", "charset", charset)
		return nil
	}

	name, _ := htmlindex.Name(enc)
	if name == "utf-8" {
		return nil
	}
	return enc
}
