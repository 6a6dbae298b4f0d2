package raster

import (
	"math"

	"mu-dqskin/internal/mathutil"
)

var (
	// ModelFlip converts Z-up (DirectX) to Y-up (OpenGL): Rx(-90°)
	ModelFlip = mathutil.RotX(math.Pi / -2)

	// MirrorX converts left-handed to right-handed: diag(-1, 1, 1)
	MirrorX = mathutil.Mat3Diag(-1, 1, 1)

	// DefaultView is the BMD-viewer reference camera:
	// MIRROR_X @ Rx(-15°) @ Ry(12°) @ MODEL_FLIP
	DefaultView = mathutil.Mat3Mul(mathutil.Mat3Mul(mathutil.Mat3Mul(MirrorX,
		mathutil.RotX(mathutil.Deg2Rad(-15))), mathutil.RotY(mathutil.Deg2Rad(12))), ModelFlip)
)

// Camera is an orthographic view: rotate by View, then center and scale
// into a square image of Size pixels.
type Camera struct {
	View   mathutil.Mat3
	Center mathutil.Vec3 // view-space center of the framed box
	Scale  float64       // pixels per model unit
	Size   int
}

// FitCamera frames the view-space bounding box of the given point sets
// with a margin in pixels. Animations are framed once, on the bind pose,
// so the camera does not follow the motion.
func FitCamera(view mathutil.Mat3, size, margin int, points ...[]mathutil.Vec3) Camera {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	found := false
	for _, ps := range points {
		for _, p := range ps {
			v := view.MulVec3(p)
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], v[k])
				hi[k] = math.Max(hi[k], v[k])
			}
			found = true
		}
	}
	if !found {
		return Camera{View: view, Scale: 1, Size: size}
	}

	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}
	return Camera{
		View:   view,
		Center: lo.Add(hi).Scale(0.5),
		Scale:  float64(size-2*margin) / span,
		Size:   size,
	}
}

// Project maps a model-space point to screen x, y and view depth.
func (c Camera) Project(p mathutil.Vec3) (x, y, z float64) {
	t := c.View.MulVec3(p)
	half := float64(c.Size) / 2
	return (t[0]-c.Center[0])*c.Scale + half, -(t[1]-c.Center[1])*c.Scale + half, t[2]
}
