// Package skin deforms rest-pose geometry by blending per-joint rigid
// transforms encoded as dual quaternions.
package skin

import "mu-dqskin/internal/mathutil"

// Blend folds a vertex's influences into one dual quaternion.
//
// The first influence is the pivot: its rotation is the hemisphere
// reference, and every later influence whose rotation has a negative dot
// product with it contributes with its weight negated, since q and -q
// encode the same rotation. The sum is left unnormalized.
//
// Joint references must be in range for joints; see Validate.
func Blend(joints []mathutil.DualQuat, infl []Influence) mathutil.DualQuat {
	if len(infl) == 0 {
		return mathutil.DualQuatIdentity()
	}

	// An absent pivot seeds the identity at full weight, as the
	// identity is also its hemisphere reference. Lists led by NoJoint
	// are therefore not order independent.
	pivot := resolve(joints, infl[0].Joint)
	blended := mathutil.DualQuatIdentity()
	if _, ok := infl[0].Joint.Index(); ok {
		blended = pivot.Scale(infl[0].Weight)
	}
	q0 := pivot.Rotation()

	for _, in := range infl[1:] {
		dq := resolve(joints, in.Joint)
		w := in.Weight
		if dq.Rotation().Dot(q0) < 0 {
			w = -w
		}
		blended = blended.Add(dq.Scale(w))
	}
	return blended
}

func resolve(joints []mathutil.DualQuat, r JointRef) mathutil.DualQuat {
	if i, ok := r.Index(); ok {
		return joints[i]
	}
	return mathutil.DualQuatIdentity()
}

// Deform writes the skinned position and normal of every vertex into
// outPos and outNorm. All slices indexed by vertex must have the same
// length and every joint reference must be in range; nothing is checked.
// Use DeformChecked at trust boundaries.
func Deform(
	rest, normals []mathutil.Vec3,
	joints []mathutil.DualQuat,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) {
	deformRange(0, len(rest), rest, normals, joints, infl, outPos, outNorm)
}

func deformRange(
	lo, hi int,
	rest, normals []mathutil.Vec3,
	joints []mathutil.DualQuat,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) {
	for v := lo; v < hi; v++ {
		dq := Blend(joints, infl[v])
		outPos[v] = dq.TransformPoint(rest[v])
		outNorm[v] = dq.RotateDirection(normals[v])
	}
}

// DeformChecked validates its inputs and then runs Deform. On error no
// output is written.
func DeformChecked(
	rest, normals []mathutil.Vec3,
	joints []mathutil.DualQuat,
	infl [][]Influence,
	outPos, outNorm []mathutil.Vec3,
) error {
	if err := Validate(rest, normals, joints, infl, outPos, outNorm); err != nil {
		return err
	}
	Deform(rest, normals, joints, infl, outPos, outNorm)
	return nil
}
