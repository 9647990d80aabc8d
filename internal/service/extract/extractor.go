package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrPasswordProtected means the PDF declares encryption. Extraction
	// fails closed: encrypted content is never rasterized or OCR'd.
	ErrPasswordProtected = errors.New("the uploaded PDF is password-protected")

	// ErrUnreadable means neither digital parsing nor OCR produced text.
	ErrUnreadable = errors.New("no readable text could be extracted from the PDF")
)

// DefaultMinDigitalText is the digital-parse sufficiency threshold in
// characters. Shorter output is treated as a scanned document and sent to OCR.
const DefaultMinDigitalText = 100

// Rasterizer renders PDF pages to PNG-encoded images for the OCR path.
type Rasterizer interface {
	Render(ctx context.Context, pdfBytes []byte) ([][]byte, error)
}

// Engine recognizes text in a single page image.
type Engine interface {
	Recognize(ctx context.Context, page []byte) (string, error)
}

// Config tunes the extraction chain.
type Config struct {
	MinDigitalText int
}

// Service turns an uploaded PDF into plain text. It tries a fast digital
// parse first and falls back to per-page OCR when the document carries no
// usable text layer.
type Service struct {
	minDigitalText int
	raster         Rasterizer
	ocr            Engine
	digital        func(data []byte) (string, error)
}

// New builds the extractor around the given rasterizer and OCR engine.
func New(cfg Config, raster Rasterizer, ocr Engine) *Service {
	minText := cfg.MinDigitalText
	if minText <= 0 {
		minText = DefaultMinDigitalText
	}
	return &Service{
		minDigitalText: minText,
		raster:         raster,
		ocr:            ocr,
		digital:        digitalText,
	}
}

// Extract produces plain text from pdfBytes or fails with
// ErrPasswordProtected or ErrUnreadable. Page texts are concatenated with a
// blank line between pages on both paths.
func (s *Service) Extract(ctx context.Context, pdfBytes []byte) (string, error) {
	text, err := s.digital(pdfBytes)
	switch {
	case errors.Is(err, ErrPasswordProtected):
		return "", err
	case err == nil && len(strings.TrimSpace(text)) > s.minDigitalText:
		return text, nil
	case err != nil:
		log.Printf("[extract] digital parse failed, trying OCR: %v", err)
	default:
		log.Printf("[extract] digital text below threshold (%d chars), trying OCR", len(strings.TrimSpace(text)))
	}

	return s.ocrText(ctx, pdfBytes)
}

func (s *Service) ocrText(ctx context.Context, pdfBytes []byte) (string, error) {
	pages, err := s.raster.Render(ctx, pdfBytes)
	if err != nil {
		return "", fmt.Errorf("%w: rasterizing pages: %v", ErrUnreadable, err)
	}

	var b strings.Builder
	for i, page := range pages {
		text, err := s.ocr.Recognize(ctx, page)
		if err != nil {
			return "", fmt.Errorf("%w: recognizing page %d: %v", ErrUnreadable, i+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrUnreadable
	}
	return b.String(), nil
}

// digitalText extracts the text layer page by page. The parser panics on
// some malformed cross-reference tables, so the whole walk runs under a
// recover that converts the panic into a parse error.
func digitalText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", ErrPasswordProtected
		}
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[extract] skipping page %d: %v", i, err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
