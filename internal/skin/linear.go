package skin

import "mu-dqskin/internal/mathutil"

// DeformLinear is matrix-based linear blend skinning over the same
// influence lists: the weighted sum of joint matrices applied to each
// vertex. It exhibits the volume loss that Deform avoids and is kept as
// a comparison baseline. Normals are renormalized after blending.
func DeformLinear(
	rest, normals []mathutil.Vec3,
	joints []mathutil.Mat4,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) {
	for v := range rest {
		m := blendMatrix(joints, infl[v])
		outPos[v] = m.MulPoint(rest[v])
		outNorm[v] = m.MulDir(normals[v]).Normalize()
	}
}

func blendMatrix(joints []mathutil.Mat4, infl []Influence) mathutil.Mat4 {
	if len(infl) == 0 {
		return mathutil.Mat4Identity()
	}
	var m mathutil.Mat4
	for _, in := range infl {
		j := mathutil.Mat4Identity()
		if i, ok := in.Joint.Index(); ok {
			j = joints[i]
		}
		m = m.Add(j.Scale(in.Weight))
	}
	return m
}

// JointMatrices converts dual quaternion joint transforms for DeformLinear.
func JointMatrices(joints []mathutil.DualQuat) []mathutil.Mat4 {
	out := make([]mathutil.Mat4, len(joints))
	for i, j := range joints {
		out[i] = j.ToMat4()
	}
	return out
}
