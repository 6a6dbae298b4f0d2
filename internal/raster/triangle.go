package raster

import (
	"image"
	"image/color"
	"math"
)

// vertex is one projected triangle corner.
type vertex struct {
	x, y, z float64
	u, v    float64
	shade   float64
}

// RasterizeTriangle fills one triangle with z-buffering, bilinear texture
// sampling and Gouraud shading: the per-corner lighting scalars are
// interpolated, so smooth skinned normals show up as smooth light.
// With tex == nil the flat color is used.
func RasterizeTriangle(fb *FrameBuffer, c [3]vertex, tex *image.NRGBA, flat color.NRGBA, lc *LightConfig) {
	x0, y0 := c[0].x, c[0].y
	x1, y1 := c[1].x, c[1].y
	x2, y2 := c[2].x, c[2].y

	minX := max(int(math.Min(math.Min(x0, x1), x2)), 0)
	maxX := min(int(math.Max(math.Max(x0, x1), x2))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(y0, y1), y2)), 0)
	maxY := min(int(math.Max(math.Max(y0, y1), y2))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*c[0].z + w1*c[1].z + w2*c[2].z
			zi := rowOff + sx
			if z <= fb.ZBuf[zi] {
				continue
			}

			texel := flat
			if tex != nil {
				texel = SampleTexture(tex,
					w0*c[0].u+w1*c[1].u+w2*c[2].u,
					w0*c[0].v+w1*c[1].v+w2*c[2].v)
			}
			// Skip transparent texels
			if texel.A < 8 {
				continue
			}
			fb.ZBuf[zi] = z

			shade := w0*c[0].shade + w1*c[1].shade + w2*c[2].shade
			r, g, b := lc.Shade(texel.R, texel.G, texel.B, shade)
			pi := zi * 4
			fb.Color[pi] = r
			fb.Color[pi+1] = g
			fb.Color[pi+2] = b
			fb.Color[pi+3] = texel.A
		}
	}
}
