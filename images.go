package website

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/nathan-a-king/website-sub000/markdown"
)

const (
	maxImageWidth      = 1200
	maxSmallImageWidth = 480
	jpegQuality        = 82
	maxUploadSize      = 10 << 20 // 10MB
	uploadsSubdir      = "uploads"
)

// processImage decodes an image from src, shrinks it to the width its
// layout needs and re-encodes it. JPEG stays JPEG; everything else becomes
// PNG so transparency in diagrams survives. The file name keeps the
// "small" and "dark" tokens the renderer reads.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	base := slugifyFilename(originalName)
	if base == "" {
		base = "image"
	}
	limit := maxImageWidth
	if markdown.LayoutHint(base) != markdown.LayoutFull {
		limit = maxSmallImageWidth
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > limit {
		newH := h * limit / w
		dst := image.NewRGBA(image.Rect(0, 0, limit, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = limit
		h = newH
	}

	var buf bytes.Buffer
	ext := ".png"
	if format == "jpeg" {
		ext = ".jpg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return Image{}, nil, fmt.Errorf("encode %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	return Image{
		Filename:     base + ext,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	return Slugify(strings.TrimSuffix(name, ext))
}

// ensureUniqueFilename appends a counter if filename already exists in the
// uploads directory or the store.
func (a *App) ensureUniqueFilename(img *Image) error {
	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	ext := filepath.Ext(img.Filename)
	base := strings.TrimSuffix(img.Filename, ext)
	candidate := img.Filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		exists, err := a.Store.ImageExists(candidate)
		if err != nil {
			return err
		}
		if statErr != nil && !exists {
			break
		}
		candidate = fmt.Sprintf("%s-%d%s", base, counter, ext)
	}
	img.Filename = candidate
	return nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("no image file provided"))
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, errorBody("file too large (max 10MB)"))
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(io.LimitReader(src, maxUploadSize), file.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid image: "+err.Error()))
	}

	if err := a.ensureUniqueFilename(&img); err != nil {
		return err
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveImage(img); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, uploadResponse{Image: img, URL: img.URL()})
}

type uploadResponse struct {
	Image
	URL string `json:"url"`
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == "/" {
		return c.JSON(http.StatusBadRequest, errorBody("filename required"))
	}

	// A file already gone from disk is not an error.
	_ = os.Remove(filepath.Join(a.Config.StaticDir, uploadsSubdir, filename))

	if err := a.Store.DeleteImage(filename); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	if images == nil {
		images = []Image{}
	}
	return c.JSON(http.StatusOK, images)
}
