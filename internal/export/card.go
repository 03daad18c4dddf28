package export

import (
	"image"
	"image/color"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 512
	cardHeight = 512
	lineHeight = 15
)

// renderCard draws the technique lines white on a dark background and
// returns an 8-bit monochrome frame.
func renderCard(width, height int, lines []string) *frame.NativeFrame[uint8] {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{16, 16, 16, 255}), image.Point{}, draw.Src)

	// Render text at base size
	face := basicfont.Face7x13
	baseWidth := 1
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > baseWidth {
			baseWidth = w
		}
	}
	baseHeight := lineHeight * len(lines)
	if baseHeight == 0 {
		baseHeight = lineHeight
	}

	textImg := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.Point26_6{X: 0, Y: fixed.I(13 + i*lineHeight)}
		drawer.DrawString(line)
	}

	// Scale to 80% of the card, keeping the aspect ratio
	scale := float64(width) * 0.8 / float64(baseWidth)
	if s := float64(height) * 0.8 / float64(baseHeight); s < scale {
		scale = s
	}
	if scale < 1 {
		scale = 1
	}
	scaledWidth := int(float64(baseWidth) * scale)
	scaledHeight := int(float64(baseHeight) * scale)

	posX := (width - scaledWidth) / 2
	posY := (height - scaledHeight) / 2
	dst := image.Rect(posX, posY, posX+scaledWidth, posY+scaledHeight)
	draw.BiLinear.Scale(img, dst, textImg, textImg.Bounds(), draw.Over, nil)

	nativeFrame := frame.NewNativeFrame[uint8](8, height, width, width*height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma, 16-bit channels down to 8
			lum := (299*r + 587*g + 114*b) / 1000
			nativeFrame.RawData[y*width+x] = uint8(lum >> 8)
		}
	}
	return nativeFrame
}
