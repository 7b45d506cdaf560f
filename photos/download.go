package photos

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"photobot/models"

	"github.com/hashicorp/go-cleanhttp"
	gbytes "github.com/labstack/gommon/bytes"
	log "github.com/sirupsen/logrus"
)

const jpegQuality = 90

// Downloader fetches an image, checks that it decodes and re-encodes it
// as JPEG into a temporary file.
type Downloader struct {
	client   *http.Client
	tempDir  string
	maxBytes int64
}

func NewDownloader(client *http.Client, tempDir string, maxBytes int64) *Downloader {
	if client == nil {
		client = cleanhttp.DefaultClient()
	}
	return &Downloader{client: client, tempDir: tempDir, maxBytes: maxBytes}
}

// Download stores the image behind url in a new temporary file and returns
// its path along with a func that removes it. The caller owns the file and
// must call cleanup once it is done, whatever the outcome.
func (d *Downloader) Download(ctx context.Context, url string) (string, func(), error) {
	data, err := d.fetch(ctx, url)
	if err != nil {
		return "", nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, &models.DownloadError{URL: url, Err: fmt.Errorf("decode image: %w", err)}
	}

	file, err := os.CreateTemp(d.tempDir, "photobot-*.jpg")
	if err != nil {
		return "", nil, &models.DownloadError{URL: url, Err: fmt.Errorf("create temp file: %w", err)}
	}
	path := file.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Errorf("Error removing temporary file %s: %v", path, err)
		}
	}

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		file.Close()
		cleanup()
		return "", nil, &models.DownloadError{URL: url, Err: fmt.Errorf("encode image: %w", err)}
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, &models.DownloadError{URL: url, Err: fmt.Errorf("write temp file: %w", err)}
	}

	bounds := img.Bounds()
	log.WithFields(log.Fields{
		"url":    url,
		"format": format,
		"size":   gbytes.Format(int64(len(data))),
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"path":   path,
	}).Info("Downloaded photo for local upload")

	return path, cleanup, nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &models.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, &models.DownloadError{URL: url, Err: err}
	}
	if int64(len(data)) > d.maxBytes {
		return nil, &models.DownloadError{URL: url, Err: fmt.Errorf("image larger than %s", gbytes.Format(d.maxBytes))}
	}
	return data, nil
}
