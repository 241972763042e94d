package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
)

func (e *Extractor) extractImage(ctx context.Context, logger *slog.Logger, doc Document) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.IMAGE, Method: "image-ocr", Pages: 1}

	raster, format, err := decodeRGB(doc.Content)
	if err != nil {
		return res, fmt.Errorf("%w: decode image: %w", common.ErrProcessing, err)
	}
	logger.Debug("image decoded", "document", doc.Name, "format", format,
		"width", raster.Bounds().Dx(), "height", raster.Bounds().Dy())

	tmpDir, err := os.MkdirTemp("", "siape-img-*")
	if err != nil {
		return res, fmt.Errorf("%w: temp dir: %w", common.ErrInternal, err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	out := filepath.Join(tmpDir, "page.png")
	if err := writePNG(out, raster); err != nil {
		return res, fmt.Errorf("%w: encode png: %w", common.ErrInternal, err)
	}

	txt, err := e.tesseractOCR(ctx, logger, out)
	if err != nil {
		return res, err
	}
	res.Text = txt
	return res, nil
}

// decodeRGB decodes any registered format and flattens it onto an opaque RGBA canvas.
func decodeRGB(content []byte) (*image.RGBA, string, error) {
	src, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, "", err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst, format, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
