// Package raster is a small software renderer for previewing skinned
// BMD meshes.
package raster

import (
	"image"
	"image/color"

	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/mathutil"
)

// TextureResolver resolves a BMD texture reference to a decoded image,
// or nil when it is not available.
type TextureResolver interface {
	Resolve(texName string) *image.NRGBA
}

// Surface is one deformed mesh: per-vertex model-space positions and
// normals, plus the source mesh for triangles, UVs and texture.
type Surface struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	Mesh      *bmd.Mesh
}

var defaultColor = color.NRGBA{R: 160, G: 160, B: 170, A: 255}

// Render draws surfaces through cam into a new cam.Size square image.
func Render(surfaces []Surface, cam Camera, textures TextureResolver) *image.NRGBA {
	fb := NewFrameBuffer(cam.Size, cam.Size)
	lc := DefaultLightConfig()

	for _, s := range surfaces {
		if len(s.Positions) == 0 || s.Mesh == nil {
			continue
		}

		var tex *image.NRGBA
		if textures != nil {
			tex = textures.Resolve(s.Mesh.TexPath)
		}
		flat := defaultColor
		if tex != nil {
			flat = averageColor(tex)
		}

		verts := make([]vertex, len(s.Positions))
		for i, p := range s.Positions {
			x, y, z := cam.Project(p)
			n := cam.View.MulVec3(s.Normals[i]).Normalize()
			verts[i] = vertex{x: x, y: y, z: z, shade: lc.ComputeShade(n)}
		}

		for _, tri := range s.Mesh.Tris {
			drawTri(fb, verts, s.Mesh.UVs, tri, [3]int{0, 1, 2}, tex, flat, &lc)
			// Quad: second triangle
			if tri.Polygon == 4 {
				drawTri(fb, verts, s.Mesh.UVs, tri, [3]int{0, 2, 3}, tex, flat, &lc)
			}
		}
	}

	return fb.Image()
}

func drawTri(fb *FrameBuffer, verts []vertex, uvs [][2]float32, tri bmd.Triangle, corners [3]int, tex *image.NRGBA, flat color.NRGBA, lc *LightConfig) {
	var c [3]vertex
	textured := tex != nil
	for k, ci := range corners {
		vi, ti := int(tri.VI[ci]), int(tri.TI[ci])
		if vi < 0 || vi >= len(verts) {
			return
		}
		c[k] = verts[vi]
		if ti < 0 || ti >= len(uvs) {
			textured = false
			continue
		}
		c[k].u, c[k].v = float64(uvs[ti][0]), float64(uvs[ti][1])
	}
	if !textured {
		tex = nil
	}
	RasterizeTriangle(fb, c, tex, flat, lc)
}
