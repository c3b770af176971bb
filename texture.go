package guraffic

import (
	"fmt"
	"image"
	"io/fs"

	// Decoders for the texture formats .mtl files and glTF materials point at.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is a decoded image used by a Material.
type Texture struct {
	ID    AssetID
	Name  string
	Image image.Image
}

// Size returns the width and height of the texture.
func (texture *Texture) Size() (int, int) {
	b := texture.Image.Bounds()
	return b.Dx(), b.Dy()
}

// LoadTexture decodes the image at the provided path within fsys. PNG, JPEG, BMP, TIFF and WebP images are supported.
func LoadTexture(fsys fs.FS, path string) (*Texture, error) {

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}

	logger.Debug("loaded texture", "path", path, "format", format, "size", img.Bounds().Size())

	return &Texture{ID: newAssetID(), Name: path, Image: img}, nil

}
