package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
)

const (
	// DefaultMaxDimension bounds the longest side of an image sent to the vision model
	DefaultMaxDimension = 1600
	jpegQuality         = 85
)

// ErrUnsupportedFormat is returned for content types the preparer cannot handle
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Preparer turns an uploaded receipt into an image the vision model accepts.
// PDFs are rasterized to their first page, photos are rotated upright and scaled down.
type Preparer struct {
	maxDim int
	logger *zap.Logger
}

// NewPreparer creates a Preparer; maxDim <= 0 selects DefaultMaxDimension
func NewPreparer(maxDim int, logger *zap.Logger) *Preparer {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Preparer{maxDim: maxDim, logger: logger}
}

// Prepare returns the image bytes to analyze and their content type
func (p *Preparer) Prepare(data []byte, mimeType string) ([]byte, string, error) {
	switch mimeType {
	case "application/pdf":
		img, err := p.rasterizeFirstPage(data)
		if err != nil {
			return nil, "", err
		}
		return p.encode(p.fit(img))
	case "image/jpeg", "image/png":
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode image: %w", err)
		}
		// Re-encoding bakes the EXIF orientation into the pixels
		return p.encode(p.fit(img))
	case "image/webp":
		return data, mimeType, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
}

func (p *Preparer) rasterizeFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("PDF has no pages")
	}
	if n := doc.NumPage(); n > 1 {
		p.logger.Debug("Only the first PDF page is analyzed", zap.Int("pages", n))
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF page: %w", err)
	}
	return img, nil
}

func (p *Preparer) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.maxDim && b.Dy() <= p.maxDim {
		return img
	}
	p.logger.Debug("Downscaling receipt image",
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("max_dimension", p.maxDim))
	return imaging.Fit(img, p.maxDim, p.maxDim, imaging.Lanczos)
}

func (p *Preparer) encode(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

var _ port.ImagePreparer = (*Preparer)(nil)
