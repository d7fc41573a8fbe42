package research

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultReaderTimeout    = 10 * time.Second
	defaultReaderRedirects  = 3
	defaultReaderMaxRunes   = 12_000
	defaultReaderMaxBytes   = int64(1_500_000)
	defaultReaderUserAgent  = "deepresearch-bot/1.0"
	defaultReaderAcceptList = "text/html,application/xhtml+xml,text/plain,text/markdown,application/json,application/pdf;q=0.9,*/*;q=0.2"
)

type PageReaderConfig struct {
	RequestTimeout time.Duration
	MaxBytes       int64
	MaxRedirects   int
	MaxTextRunes   int
}

type PageContent struct {
	URL       string
	FinalURL  string
	Title     string
	Text      string
	Truncated bool
}

// PageReader fetches a public web page with bounded size and redirects and
// extracts its readable text. Private and link-local destinations are
// refused, including after redirects and DNS resolution.
type PageReader struct {
	cfg        PageReaderConfig
	httpClient *http.Client
}

func NewPageReader(cfg PageReaderConfig, httpClient *http.Client) *PageReader {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultReaderTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultReaderMaxBytes
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultReaderRedirects
	}
	if cfg.MaxTextRunes <= 0 {
		cfg.MaxTextRunes = defaultReaderMaxRunes
	}

	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = secureDialContext(&net.Dialer{Timeout: cfg.RequestTimeout})
		httpClient = &http.Client{Transport: transport}
	}

	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("too many redirects")
		}
		if _, err := validateSourceURL(req.URL.String()); err != nil {
			return err
		}
		return nil
	}

	return &PageReader{cfg: cfg, httpClient: httpClient}
}

func (r *PageReader) Read(ctx context.Context, rawURL string) (PageContent, error) {
	if r == nil {
		return PageContent{}, fmt.Errorf("reader is nil")
	}

	parsed, err := validateSourceURL(rawURL)
	if err != nil {
		return PageContent{URL: rawURL}, err
	}

	requestCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return PageContent{URL: parsed.String()}, err
	}
	req.Header.Set("User-Agent", defaultReaderUserAgent)
	req.Header.Set("Accept", defaultReaderAcceptList)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return PageContent{URL: parsed.String()}, err
	}
	defer resp.Body.Close()

	content := PageContent{
		URL:      parsed.String(),
		FinalURL: parsed.String(),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		content.FinalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return content, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if parsedType, _, parseErr := mime.ParseMediaType(contentType); parseErr == nil {
		contentType = parsedType
	}

	payload, truncated, err := readBoundedBody(resp.Body, r.cfg.MaxBytes)
	if err != nil {
		return content, err
	}
	content.Truncated = truncated

	title, text, err := extractContent(contentType, payload, r.cfg.MaxTextRunes)
	if err != nil {
		return content, err
	}
	content.Title = title
	content.Text = text
	if strings.TrimSpace(content.Text) == "" {
		return content, fmt.Errorf("extracted content is empty")
	}
	return content, nil
}

func readBoundedBody(r io.Reader, maxBytes int64) ([]byte, bool, error) {
	if maxBytes <= 0 {
		maxBytes = defaultReaderMaxBytes
	}
	limited := io.LimitReader(r, maxBytes+1)
	payload, err := io.ReadAll(limited)
	if err != nil {
		return nil, false, err
	}
	if int64(len(payload)) > maxBytes {
		return payload[:maxBytes], true, nil
	}
	return payload, false, nil
}
