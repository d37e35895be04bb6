// Package ingest turns a PDF or image on disk into JPEG page images ready for OCR.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
)

type Config struct {
	PDFToPPM    string // binary name or absolute path; if empty -> "pdftoppm"
	DPI         int    // rasterization DPI, default 300
	MaxPages    int    // 0 = no limit
	JPEGQuality int    // default 85
	Enhance     bool   // grayscale + contrast + sharpen before encoding
}

// PageImage is one rendered page, JPEG encoded.
type PageImage struct {
	Number int
	Data   []byte
}

type Loader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewLoader builds a Loader; a nil runner executes real commands.
func NewLoader(cfg Config, runner Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PDFToPPM == "" {
		cfg.PDFToPPM = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &Loader{cfg: cfg, runner: runner, logger: logger}
}

// Load renders every page of path. Unreadable, corrupt or unsupported files
// fail with common.ErrIngestion.
func (l *Loader) Load(ctx context.Context, path string) ([]PageImage, error) {
	start := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.Kind(common.ErrIngestion, "INGEST_OPEN", "cannot read "+path, err)
	}
	if info.IsDir() {
		return nil, common.Kind(common.ErrIngestion, "INGEST_OPEN", path+" is a directory", nil)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	var pages []PageImage
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		pages, err = l.loadPDF(ctx, path)
	case constants.IMAGE:
		var page PageImage
		page, err = l.loadImage(path, 1)
		pages = []PageImage{page}
	default:
		return nil, common.Kind(common.ErrIngestion, "INGEST_UNSUPPORTED", fmt.Sprintf("unsupported extension %q", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("ingest.ok", "path", path, "pages", len(pages), "elapsed_ms", time.Since(start).Milliseconds())
	return pages, nil
}

// PageCount opens a PDF and reports its page count.
func PageCount(path string) (n int, err error) {
	// the parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

func (l *Loader) loadPDF(ctx context.Context, path string) ([]PageImage, error) {
	total, err := PageCount(path)
	if err != nil {
		return nil, common.Kind(common.ErrIngestion, "INGEST_PDF", "corrupt pdf", err)
	}
	if total == 0 {
		return nil, common.Kind(common.ErrIngestion, "INGEST_PDF", "pdf has no pages", nil)
	}
	last := total
	if l.cfg.MaxPages > 0 && last > l.cfg.MaxPages {
		l.logger.Warn("ingest.pdf.truncated", "path", path, "pages", total, "max_pages", l.cfg.MaxPages)
		last = l.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "docextract-pp-*")
	if err != nil {
		return nil, common.WrapError(err, "create temp dir")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			l.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -f 1 -l N -png <in.pdf> <tmp/page>
	_, errb, err := l.runner.Run(ctx, l.cfg.PDFToPPM,
		"-r", strconv.Itoa(l.cfg.DPI), "-f", "1", "-l", strconv.Itoa(last), "-png", path, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, common.Kind(common.ErrTransient, "INGEST_RASTERIZE", "rasterize cancelled", ctxErr)
		}
		return nil, common.Kind(common.ErrIngestion, "INGEST_RASTERIZE", truncate(string(errb), 512), err)
	}

	// prefix-1.png, prefix-2.png, ... zero padded to the widest page number
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, common.Kind(common.ErrIngestion, "INGEST_RASTERIZE", "pdftoppm produced no images", nil)
	}

	pages := make([]PageImage, 0, len(matches))
	for i, m := range matches {
		page, err := l.loadImage(m, i+1)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (l *Loader) loadImage(path string, number int) (PageImage, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return PageImage{}, common.Kind(common.ErrIngestion, "INGEST_IMAGE", "decode "+filepath.Base(path), err)
	}
	data, err := l.encode(img)
	if err != nil {
		return PageImage{}, common.Kind(common.ErrIngestion, "INGEST_IMAGE", "encode page", err)
	}
	return PageImage{Number: number, Data: data}, nil
}

// encode converts to RGB and writes a JPEG at the configured quality.
func (l *Loader) encode(img image.Image) ([]byte, error) {
	var out image.Image = imaging.Clone(img)
	if l.cfg.Enhance {
		out = Enhance(out)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(l.cfg.JPEGQuality)); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, errors.New("empty jpeg")
	}
	return buf.Bytes(), nil
}

// Enhance boosts text legibility on low-quality scans.
func Enhance(img image.Image) image.Image {
	g := imaging.Grayscale(img)
	g = imaging.AdjustContrast(g, 20)
	return imaging.Sharpen(g, 1.0)
}
