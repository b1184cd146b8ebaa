package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

// DefaultMaxImagePixels rejects images whose declared size would decode to
// more than roughly 256 MiB of RGBA.
const DefaultMaxImagePixels = 89478485

// Limits bound what acquisition accepts. Zero fields disable the check.
type Limits struct {
	Bytes  int64
	Pixels int64
}

// FromURL downloads and decodes the image at rawURL. The client's timeout
// bounds the whole request.
func FromURL(ctx context.Context, client *http.Client, rawURL string, limits Limits) (*Bitmap, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &DownloadError{URL: rawURL, Err: errors.New("invalid URL")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{URL: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := readLimited(resp.Body, limits.Bytes)
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	return decode(bytes.NewReader(body), limits.Pixels)
}

// FromReader decodes an uploaded image stream.
func FromReader(r io.Reader, limits Limits) (*Bitmap, error) {
	if limits.Bytes > 0 {
		data, err := readLimited(r, limits.Bytes)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		r = bytes.NewReader(data)
	}
	return decode(r, limits.Pixels)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return data, nil
}

// decode reads the image header first so oversized images are rejected
// before any pixel buffer is allocated.
func decode(r io.Reader, maxPixels int64) (*Bitmap, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, &DecodeError{Err: fmt.Errorf("image of %dx%d pixels exceeds the limit of %d pixels", cfg.Width, cfg.Height, maxPixels)}
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{Err: errors.New("image has no pixels")}
	}
	return toRGB(img), nil
}

// toRGB converts any color model to 8-bit RGB. Alpha is discarded, not
// composited.
func toRGB(img image.Image) *Bitmap {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	out := &Bitmap{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := out.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	return out
}
