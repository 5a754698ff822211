package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Thumbnail draws an image with upper half blocks, two pixel rows per
// terminal row, fitting inside cols x rows cells. Images are never scaled up.
func Thumbnail(data []byte, cols, rows int) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return ThumbnailImage(img, cols, rows), nil
}

// ThumbnailImage is Thumbnail for an already decoded image.
func ThumbnailImage(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return ""
	}

	scale := math.Max(float64(b.Dx())/float64(cols), float64(b.Dy())/float64(rows*2))
	if scale < 1 {
		scale = 1
	}
	w := int(math.Ceil(float64(b.Dx()) / scale))
	h := int(math.Ceil(float64(b.Dy()) / scale))

	sample := func(x, y int) (color.Color, bool) {
		if y >= h {
			return nil, false
		}
		px := b.Min.X + int(float64(x)*scale)
		py := b.Min.Y + int(float64(y)*scale)
		if px >= b.Max.X {
			px = b.Max.X - 1
		}
		if py >= b.Max.Y {
			py = b.Max.Y - 1
		}
		return img.At(px, py), true
	}

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top, _ := sample(x, y)
			style := lipgloss.NewStyle().Foreground(hexColor(top))
			if bottom, ok := sample(x, y+1); ok {
				style = style.Background(hexColor(bottom))
			}
			sb.WriteString(style.Render("▀"))
		}
	}
	return sb.String()
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
