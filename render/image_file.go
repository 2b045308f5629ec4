package render

import (
	"bufio"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"

	"go.viam.com/pointview/utils"
)

// EncodeImage writes img to w in the format named by mimeType.
func EncodeImage(w io.Writer, mimeType string, img image.Image) error {
	switch mimeType {
	case utils.MimeTypePNG:
		return png.Encode(w, img)
	case utils.MimeTypeJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case utils.MimeTypePPM:
		return ppm.Encode(w, img)
	case utils.MimeTypeQOI:
		return qoi.Encode(w, img)
	default:
		return errors.Errorf("do not know how to encode %q", mimeType)
	}
}

// WriteImage writes img to path in the format given by its extension. On failure no partial file
// is left behind.
func WriteImage(path string, img image.Image) (err error) {
	mimeType, ok := utils.MimeTypeFromPath(path)
	if !ok {
		return errors.Errorf("cannot tell image format of %q, use .png, .jpg, .ppm or .qoi", path)
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	guard := utils.NewGuard(func() {
		utils.RemoveFileNoError(path)
	})
	defer guard.OnFail()
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	if err := EncodeImage(w, mimeType, img); err != nil {
		return errors.Wrapf(err, "cannot encode %s", path)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	guard.Success()
	return nil
}
