package loaders

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// hdrExtensions are image formats that Go has no decoder for. Their
// resolution is left unknown.
var hdrExtensions = map[string]bool{
	".exr": true,
	".hdr": true,
	".pfm": true,
}

// ImageInfo is the header information of an image file
type ImageInfo struct {
	Width  int
	Height int
	Format string // decoder name, e.g. "png"
	MIME   string // detected from the file's magic bytes
}

// ImageProbe reads image headers. It implements scene.ImageProber.
type ImageProbe struct{}

// ProbeImage returns the resolution of an image without decoding pixels
func (ImageProbe) ProbeImage(path string) (int, int, error) {
	info, err := ReadImageInfo(path)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}

// ReadImageInfo detects the file type from its magic bytes and decodes
// the image header. Formats without a decoder return a zero size.
func ReadImageInfo(filename string) (*ImageInfo, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	head, _ := reader.Peek(262)

	info := &ImageInfo{}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		info.MIME = kind.MIME.Value
		if !filetype.IsImage(head) {
			return nil, fmt.Errorf("%s is not an image (%s)", filepath.Base(filename), info.MIME)
		}
	}

	if hdrExtensions[strings.ToLower(filepath.Ext(filename))] {
		info.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
		return info, nil
	}

	config, format, err := image.DecodeConfig(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	info.Width = config.Width
	info.Height = config.Height
	info.Format = format
	return info, nil
}
