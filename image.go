package stitcher

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp" // register the webp decoder
)

const (
	jpegQuality = 95
	webpQuality = 90
)

// SupportedExtensions lists the output formats the panorama can be encoded to.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp", ".webp"}

// decodeImg decodes an image, applying the EXIF orientation if present.
func decodeImg(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode the image")
	}
	return img, nil
}

// encodeImg encodes an image to a destination of type io.Writer.
// Files are encoded according to their extension, any other writer receives a JPEG.
func encodeImg(w io.Writer, img image.Image) error {
	ext := ""
	if f, ok := w.(*os.File); ok {
		ext = filepath.Ext(f.Name())
	}
	return encodeImgAs(w, img, ext)
}

// encodeImgAs encodes an image in the format given by the file extension.
func encodeImgAs(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case "", ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".gif":
		return imaging.Encode(w, img, imaging.GIF)
	case ".tif", ".tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".webp":
		return webp.Encode(w, img, &webp.Options{Quality: webpQuality})
	default:
		return errors.Errorf("unsupported image format: %s", ext)
	}
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
// An *image.NRGBA already anchored at the origin is returned as is.
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		return imaging.Clone(img)
	}

	return dst
}
