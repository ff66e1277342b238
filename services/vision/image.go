package visionsvc

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const jpegQuality = 85

// PrepareImage decodes a photo, fixes its EXIF orientation and fits it within maxDim x maxDim,
// re-encoded as JPEG. maxDim <= 0 keeps the original size.
func PrepareImage(data []byte, maxDim int) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errors.Wrap(err, "decoding image")
	}

	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", errors.Wrap(err, "encoding image")
	}
	return buf.Bytes(), "image/jpeg", nil
}
