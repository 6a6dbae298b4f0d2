package raster

import (
	"image"
	"image/color"
)

// SampleTexture performs bilinear filtering with UV wrapping.
// Accesses tex.Pix directly; the inner loop calls it per pixel.
func SampleTexture(tex *image.NRGBA, u, v float64) color.NRGBA {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{}
	}

	u = wrap01(u)
	v = wrap01(v)

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float64(x0), fy-float64(y0)

	stride := tex.Stride
	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		f := float64(tex.Pix[i00+c])*w00 + float64(tex.Pix[i10+c])*w10 +
			float64(tex.Pix[i01+c])*w01 + float64(tex.Pix[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func wrap01(t float64) float64 {
	t -= float64(int(t))
	if t < 0 {
		t += 1
	}
	return t
}

// averageColor is the flat color used when a mesh has no UVs.
func averageColor(tex *image.NRGBA) color.NRGBA {
	b := tex.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return defaultColor
	}
	var sum [3]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := tex.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			i := off + x*4
			sum[0] += float64(tex.Pix[i])
			sum[1] += float64(tex.Pix[i+1])
			sum[2] += float64(tex.Pix[i+2])
		}
	}
	f := float64(n)
	return color.NRGBA{R: uint8(sum[0]/f + 0.5), G: uint8(sum[1]/f + 0.5), B: uint8(sum[2]/f + 0.5), A: 255}
}
