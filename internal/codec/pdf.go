package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF writes a single page PDF holding img. The page is sized to the
// image at 72 dpi divided by scale, so a 2x canvas keeps its logical size.
func WritePDF(w io.Writer, img image.Image, title string, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	b := img.Bounds()
	pw := float64(b.Dx()) / scale
	ph := float64(b.Dy()) / scale

	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	if title != "" {
		p.SetTitle(title, true)
	}
	p.SetCreator("magicdraw", true)
	p.AddPage()

	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(data))
	p.ImageOptions("canvas", 0, 0, pw, ph, false, opts, 0, "")
	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
