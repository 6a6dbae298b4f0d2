package skin

import "mu-dqskin/internal/mathutil"

// Validate checks what Deform assumes: one entry per vertex in every
// vertex-indexed slice and joint references within joints.
// Weight sums are not checked.
func Validate(
	rest, normals []mathutil.Vec3,
	joints []mathutil.DualQuat,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) error {
	n := len(rest)
	for _, c := range []struct {
		name string
		l    int
	}{
		{"normals", len(normals)},
		{"influence lists", len(infl)},
		{"output positions", len(outPos)},
		{"output normals", len(outNorm)},
	} {
		if c.l != n {
			return invalidf("%d %s for %d vertices", c.l, c.name, n)
		}
	}

	for v, list := range infl {
		for j, in := range list {
			if i, ok := in.Joint.Index(); ok && i >= len(joints) {
				return invalidf("vertex %d influence %d: joint %d out of range (%d joints)", v, j, i, len(joints))
			}
		}
	}
	return nil
}
