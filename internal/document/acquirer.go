package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"billx/internal/domain"
	"billx/internal/port"
)

// pdfMagic is the 4-byte signature that opens every PDF file.
var pdfMagic = []byte("%PDF")

// Config holds acquirer settings.
type Config struct {
	Tesseract string
	Pdftoppm  string
	Language  string
	DPI       int
	MaxPages  int // 0 = no limit

	FetchTimeout  time.Duration
	MaxFetchBytes int64
}

// Acquirer turns a document URL into an ordered sequence of OCR'd pages.
type Acquirer struct {
	cfg        Config
	httpClient *http.Client
	objects    port.ObjectFetcher
	runner     Runner
}

// NewAcquirer creates an Acquirer. objects may be nil; s3:// URLs then fail
// at fetch time.
func NewAcquirer(cfg Config, objects port.ObjectFetcher) *Acquirer {
	return NewAcquirerWithRunner(cfg, objects, execRunner{})
}

// NewAcquirerWithRunner creates an Acquirer with a custom command runner (for testing).
func NewAcquirerWithRunner(cfg Config, objects port.ObjectFetcher, runner Runner) *Acquirer {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxFetchBytes <= 0 {
		cfg.MaxFetchBytes = 50 << 20
	}
	return &Acquirer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		objects:    objects,
		runner:     runner,
	}
}

// CheckEngine verifies the OCR and rasterization binaries are present and
// runnable. Called once at startup; a failure is fatal for the process
// since no page can ever be processed without them.
func (a *Acquirer) CheckEngine(ctx context.Context) error {
	for _, bin := range []string{a.cfg.Tesseract, a.cfg.Pdftoppm} {
		if _, _, err := a.runner.Run(ctx, bin, "-v"); err != nil {
			return fmt.Errorf("%s not runnable: %v: %w", bin, err, domain.ErrOCRUnavailable)
		}
	}
	return nil
}

// Fetch downloads the raw document bytes from an http(s) or s3 URL.
func (a *Acquirer) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing document url: %v: %w", err, domain.ErrDocumentFetch)
	}

	switch u.Scheme {
	case "s3":
		if a.objects == nil {
			return nil, fmt.Errorf("s3 source not configured: %w", domain.ErrDocumentFetch)
		}
		key := strings.TrimPrefix(u.Path, "/")
		data, err := a.objects.FetchObject(ctx, u.Host, key)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrDocumentFetch)
		}
		return data, nil
	case "http", "https":
		return a.fetchHTTP(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q: %w", u.Scheme, domain.ErrDocumentFetch)
	}
}

func (a *Acquirer) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %v: %w", err, domain.ErrDocumentFetch)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrDocumentFetch)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching document: %w", resp.StatusCode, domain.ErrDocumentFetch)
	}

	// Read one byte past the limit so truncation is detectable instead of
	// silently handing a clipped document to the rasterizer.
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %v: %w", err, domain.ErrDocumentFetch)
	}
	if int64(len(data)) > a.cfg.MaxFetchBytes {
		return nil, fmt.Errorf("document exceeds %d byte limit: %w", a.cfg.MaxFetchBytes, domain.ErrDocumentFetch)
	}

	log.Printf("document: downloaded %d bytes from %s", len(data), rawURL)
	return data, nil
}

// Classify identifies the payload format: PDF by magic signature, image by
// attempting a raster decode, anything else unsupported.
func Classify(data []byte) domain.Format {
	if bytes.HasPrefix(data, pdfMagic) {
		return domain.FormatPDF
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return domain.FormatImage
	}
	return domain.FormatUnsupported
}

// Process is the acquirer's public entry point: fetch, classify, rasterize
// PDFs, and OCR every page. Pages are numbered from 1 in source order.
func (a *Acquirer) Process(ctx context.Context, rawURL string) ([]domain.Page, error) {
	data, err := a.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	switch Classify(data) {
	case domain.FormatPDF:
		return a.processPDF(ctx, data)
	case domain.FormatImage:
		return a.processImage(ctx, data)
	default:
		return nil, fmt.Errorf("document is neither a pdf nor a decodable image: %w", domain.ErrUnsupportedFormat)
	}
}

func (a *Acquirer) processPDF(ctx context.Context, pdf []byte) ([]domain.Page, error) {
	imgs, cleanup, err := a.rasterize(ctx, pdf)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	pages := make([]domain.Page, 0, len(imgs))
	for i, img := range imgs {
		text, err := a.ocrImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}

func (a *Acquirer) processImage(ctx context.Context, data []byte) ([]domain.Page, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Light preprocessing improves OCR accuracy on photos of bills.
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)

	tmp, err := os.CreateTemp("", "billx-img-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating temp image: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("saving preprocessed image: %w", err)
	}

	text, err := a.ocrImage(ctx, path)
	if err != nil {
		return nil, err
	}
	return []domain.Page{{Number: 1, Text: text}}, nil
}

// rasterize renders each PDF page as a PNG at the configured DPI. Returned
// paths are in source page order; the cleanup func removes the temp dir.
func (a *Acquirer) rasterize(ctx context.Context, pdf []byte) (paths []string, cleanup func(), err error) {
	tmpDir, err := os.MkdirTemp("", "billx-pp-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, cleanup, fmt.Errorf("writing temp pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := a.runner.Run(ctx, a.cfg.Pdftoppm, "-r", strconv.Itoa(a.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return nil, cleanup, fmt.Errorf("rasterizing pdf: %s: %w", truncate(string(errb), 512), err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...); pdftoppm
	// zero-pads page numbers so a string sort preserves source order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if a.cfg.MaxPages > 0 && len(matches) > a.cfg.MaxPages {
		matches = matches[:a.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, cleanup, fmt.Errorf("pdftoppm produced no images")
	}

	log.Printf("document: rasterized pdf into %d pages at %d dpi", len(matches), a.cfg.DPI)
	return matches, cleanup, nil
}

func (a *Acquirer) ocrImage(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := a.runner.Run(ctx, a.cfg.Tesseract, path, "stdout", "-l", a.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %s: %w", truncate(string(errb), 512), err)
	}
	return string(out), nil
}
