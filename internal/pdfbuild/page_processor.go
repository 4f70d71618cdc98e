package pdfbuild

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // A mislabeled PNG still decodes.
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// jpegQuality bounds the size of every embedded page.
const jpegQuality = 85

var errInvalidDimensions = errors.New("image has non-positive dimensions")

// decodeFunc opens and decodes one image file.
type decodeFunc func(path string) (image.Image, error)

func decodeFile(path string) (image.Image, error) {
	file, openErr := os.Open(path) // #nosec G304 -- path comes from ListImages
	if openErr != nil {
		return nil, fmt.Errorf("could not open image: %w", openErr)
	}

	defer func() { _ = file.Close() }()

	img, _, decodeErr := image.Decode(file)
	if decodeErr != nil {
		return nil, fmt.Errorf("could not decode image: %w", decodeErr)
	}

	return img, nil
}

// preparedImage is one page's JPEG payload. Its buffer lives for a single
// loop iteration.
type preparedImage struct {
	data   []byte
	width  int
	height int
}

// prepareImage decodes the image, drops any alpha channel and re-encodes it
// as a JPEG held in memory.
func prepareImage(decode decodeFunc, path string) (preparedImage, error) {
	img, decodeErr := decode(path)
	if decodeErr != nil {
		return preparedImage{}, decodeErr
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return preparedImage{}, fmt.Errorf("%dx%d: %w", bounds.Dx(), bounds.Dy(), errInvalidDimensions)
	}

	var buf bytes.Buffer

	encodeErr := jpeg.Encode(&buf, flattenAlpha(img), &jpeg.Options{Quality: jpegQuality})
	if encodeErr != nil {
		return preparedImage{}, fmt.Errorf("could not re-encode image: %w", encodeErr)
	}

	return preparedImage{data: buf.Bytes(), width: bounds.Dx(), height: bounds.Dy()}, nil
}

// flattenAlpha returns img unchanged when it is opaque. Otherwise every pixel
// keeps its color and loses its transparency; nothing is blended against a
// background.
func flattenAlpha(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}

	switch img.ColorModel() {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
	default:
		return img
	}

	bounds := img.Bounds()
	flat := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixel, _ := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pixel.A = 0xff
			flat.SetNRGBA(x, y, pixel)
		}
	}

	return flat
}

// document wraps the gofpdf handle for one output file.
type document struct {
	pdf   *gofpdf.Fpdf
	page  PageSize
	drawn int
}

func newDocument(page PageSize) *document {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		SizeStr:        "",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
		FontDirStr:     "",
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	return &document{pdf: pdf, page: page}
}

// drawImage places one prepared image centered on its own page. The first
// image uses the page the document was opened with; later ones start a new
// page only once their data has been accepted, so a rejected image never
// leaves a blank page.
func (doc *document) drawImage(index int, path string, img preparedImage) error {
	name := fmt.Sprintf("page_%04d_%s", index+1, filepath.Base(path))
	options := gofpdf.ImageOptions{ImageType: "JPG"}

	doc.pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(img.data))

	registerErr := doc.takeError()
	if registerErr != nil {
		return fmt.Errorf("could not embed image: %w", registerErr)
	}

	if doc.drawn > 0 {
		doc.pdf.AddPage()
	}

	placement := ComputePlacement(float64(img.width), float64(img.height), doc.page)
	doc.pdf.ImageOptions(name, placement.X, placement.Y, placement.Width, placement.Height, false, options, 0, "")

	drawErr := doc.takeError()
	if drawErr != nil {
		return fmt.Errorf("could not draw image: %w", drawErr)
	}

	doc.drawn++

	return nil
}

// takeError returns and clears the document's sticky error so one bad image
// does not poison the rest of the file.
func (doc *document) takeError() error {
	if !doc.pdf.Ok() {
		err := doc.pdf.Error()
		doc.pdf.ClearError()

		return err
	}

	return nil
}
