package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// FitzRasterizer renders PDF pages to PNG images with MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer returns the default rasterizer.
func NewFitzRasterizer() FitzRasterizer {
	return FitzRasterizer{}
}

// Render rasterizes every page of the document. Buffers are transient; no
// page image is kept after extraction completes.
func (FitzRasterizer) Render(_ context.Context, pdfBytes []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("opening pdf for rasterization: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}

// TesseractEngine recognizes page images with Tesseract.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine returns an OCR engine for the given language ("eng"
// when empty).
func NewTesseractEngine(language string) TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return TesseractEngine{language: language}
}

// Recognize runs OCR on one PNG-encoded page. Tesseract clients are not
// goroutine-safe, so each call uses its own.
func (e TesseractEngine) Recognize(_ context.Context, page []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("setting ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(page); err != nil {
		return "", fmt.Errorf("loading page image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}
