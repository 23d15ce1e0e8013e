package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/patrickmn/go-cache"
)

// DefaultImageLookupURL is the Wikipedia page summary endpoint; the escaped
// search term is appended to it.
const DefaultImageLookupURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// thumbnailPath locates the image URL in a page summary document.
const thumbnailPath = "$.thumbnail.source"

// ImageLookup finds a reference image for a place name. Definitive answers,
// including pages without an image, are cached per term.
type ImageLookup struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	log     *slog.Logger
}

// NewImageLookup constructs an ImageLookup querying baseURL.
func NewImageLookup(baseURL string, client *http.Client, log *slog.Logger) *ImageLookup {
	if baseURL == "" {
		baseURL = DefaultImageLookupURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ImageLookup{
		baseURL: baseURL,
		http:    client,
		cache:   cache.New(6*time.Hour, 30*time.Minute),
		log:     log,
	}
}

// Find returns the thumbnail URL of the page best matching term. Every
// failure, from transport errors to a page without an image, is a miss.
func (l *ImageLookup) Find(ctx context.Context, term string) (string, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false
	}
	if v, ok := l.cache.Get(term); ok {
		src := v.(string)
		return src, src != ""
	}

	src, final, err := l.fetch(ctx, term)
	if err != nil {
		l.log.Debug("image lookup failed", "term", term, "error", err)
	}
	if final {
		l.cache.Set(term, src, cache.DefaultExpiration)
	}
	return src, src != ""
}

// fetch reports final=true when the answer, hit or miss, is worth caching.
func (l *ImageLookup) fetch(ctx context.Context, term string) (src string, final bool, err error) {
	u := l.baseURL + url.PathEscape(strings.ReplaceAll(term, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", true, fmt.Errorf("no page for %q", term)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", false, fmt.Errorf("decode: %w", err)
	}
	v, err := jsonpath.Get(thumbnailPath, doc)
	if err != nil {
		return "", true, fmt.Errorf("no thumbnail: %w", err)
	}
	src, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("thumbnail is %T", v)
	}
	return src, true, nil
}
