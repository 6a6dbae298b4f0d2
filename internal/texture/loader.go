package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Container header sizes of the client's wrapped formats.
const (
	ozjHeader = 24 // + JPEG
	oztHeader = 4  // + TGA
)

// Load reads a texture file and returns it as NRGBA. OZJ and OZT are
// the client's wrapped JPEG and TGA; plain JPEG, PNG, TGA and BMP are
// read as is.
func Load(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return Decode(filepath.Ext(path), raw)
}

// Decoders by extension. The TGA format has no magic number, so
// image.Decode sniffing would hand it every file.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".ozj":  jpeg.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".ozt":  tga.Decode,
	".tga":  tga.Decode,
	".png":  png.Decode,
	".bmp":  bmp.Decode,
}

// Decode decodes texture bytes, unwrapping and picking the decoder by
// extension.
func Decode(ext string, raw []byte) (*image.NRGBA, error) {
	ext = strings.ToLower(ext)
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("texture: unsupported format %q", ext)
	}
	switch ext {
	case ".ozj":
		if len(raw) <= ozjHeader {
			return nil, fmt.Errorf("texture: OZJ too short (%d bytes)", len(raw))
		}
		raw = raw[ozjHeader:]
	case ".ozt":
		if len(raw) <= oztHeader {
			return nil, fmt.Errorf("texture: OZT too short (%d bytes)", len(raw))
		}
		raw = raw[oztHeader:]
	}

	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", ext, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA. Sources without alpha come out opaque.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
