package mathutil

import (
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// DualQuat is a rigid transform (rotation + translation) encoded as a dual
// quaternion r + dε. Blending is done by component-wise weighted sums, so
// values handed to TransformPoint and RotateDirection are in general not
// unit length; both divide by |r| before applying.
type DualQuat dualquat.Number

// DualQuatIdentity is the transform that leaves every point in place.
func DualQuatIdentity() DualQuat {
	return DualQuat{Real: quat.Number{Real: 1}}
}

// DualQuatFromRotationTranslation builds the transform p ↦ q·p·q̄ + t.
func DualQuatFromRotationTranslation(q Quat, t Vec3) DualQuat {
	r := q.number()
	tq := quat.Number{Imag: t[0], Jmag: t[1], Kmag: t[2]}
	return DualQuat{Real: r, Dual: quat.Scale(0.5, quat.Mul(tq, r))}
}

// Rotation returns the real (rotation) part as stored, without normalizing.
func (d DualQuat) Rotation() Quat {
	return quatFromNumber(d.Real)
}

// Translation returns the translation of the normalized transform.
func (d DualQuat) Translation() Vec3 {
	n := quat.Abs(d.Real)
	if n == 0 {
		return Vec3{}
	}
	t := quat.Scale(2/(n*n), quat.Mul(d.Dual, quat.Conj(d.Real)))
	return Vec3{t.Imag, t.Jmag, t.Kmag}
}

// Scale multiplies all eight components by w.
func (d DualQuat) Scale(w float64) DualQuat {
	return DualQuat(dualquat.Scale(w, dualquat.Number(d)))
}

// Add is the component-wise sum. The result is not renormalized.
func (d DualQuat) Add(o DualQuat) DualQuat {
	return DualQuat(dualquat.Add(dualquat.Number(d), dualquat.Number(o)))
}

// Neg returns -d, which encodes the same rigid transform.
func (d DualQuat) Neg() DualQuat {
	return d.Scale(-1)
}

// Mul composes transforms: the result applies o first, then d.
func (d DualQuat) Mul(o DualQuat) DualQuat {
	return DualQuat(dualquat.Mul(dualquat.Number(d), dualquat.Number(o)))
}

// Conj returns the quaternion conjugate of both parts, r̄ + d̄ε, which is
// the inverse transform when d is unit.
func (d DualQuat) Conj() DualQuat {
	return DualQuat(dualquat.ConjQuat(dualquat.Number(d)))
}

// Norm is the magnitude of the real part.
func (d DualQuat) Norm() float64 {
	return quat.Abs(d.Real)
}

// Normalize divides both parts by the norm of the real part.
func (d DualQuat) Normalize() DualQuat {
	n := d.Norm()
	if n < 1e-12 {
		return DualQuatIdentity()
	}
	return d.Scale(1 / n)
}

// TransformPoint applies rotation and translation to a point.
func (d DualQuat) TransformPoint(p Vec3) Vec3 {
	n := d.Norm()
	if n < 1e-12 {
		return p
	}
	r := quatFromNumber(quat.Scale(1/n, d.Real))
	e := quat.Scale(1/n, d.Dual)

	// t = 2·e·r̄
	t := quat.Scale(2, quat.Mul(e, r.Conj().number()))
	return r.Rotate(p).Add(Vec3{t.Imag, t.Jmag, t.Kmag})
}

// RotateDirection applies only the rotation, for normals and directions.
func (d DualQuat) RotateDirection(v Vec3) Vec3 {
	n := d.Norm()
	if n < 1e-12 {
		return v
	}
	return quatFromNumber(quat.Scale(1/n, d.Real)).Rotate(v)
}

// ToMat4 returns the affine matrix of the normalized transform.
func (d DualQuat) ToMat4() Mat4 {
	n := d.Norm()
	if n < 1e-12 {
		return Mat4Identity()
	}
	r := quatFromNumber(quat.Scale(1/n, d.Real))
	return FromMat3Translation(QuatToMat3(r), d.Translation())
}
