package skin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-dqskin/internal/mathutil"
)

const tol = 1e-9

func assertVec3(t *testing.T, want, got mathutil.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, msgAndArgs...)
	}
}

func rigid(axis mathutil.Vec3, angle float64, tr mathutil.Vec3) mathutil.DualQuat {
	return mathutil.DualQuatFromRotationTranslation(mathutil.QuatFromAxisAngle(axis, angle), tr)
}

// deformOne skins a single vertex and returns its position and normal.
func deformOne(joints []mathutil.DualQuat, infl []Influence, p, n mathutil.Vec3) (mathutil.Vec3, mathutil.Vec3) {
	outPos := make([]mathutil.Vec3, 1)
	outNorm := make([]mathutil.Vec3, 1)
	Deform([]mathutil.Vec3{p}, []mathutil.Vec3{n}, joints, [][]Influence{infl}, outPos, outNorm)
	return outPos[0], outNorm[0]
}

var (
	restP = mathutil.Vec3{0.3, 1.2, -0.7}
	restN = mathutil.Vec3{0, 0.6, 0.8}
)

func TestSingleInfluenceMatchesJoint(t *testing.T) {
	joints := []mathutil.DualQuat{
		mathutil.DualQuatIdentity(),
		rigid(mathutil.Vec3{1, 2, 0}, 1.3, mathutil.Vec3{4, -1, 2}),
	}
	p, n := deformOne(joints, []Influence{{Joint: Joint(1), Weight: 1}}, restP, restN)

	assertVec3(t, joints[1].TransformPoint(restP), p)
	assertVec3(t, joints[1].RotateDirection(restN), n)
}

func TestZeroInfluencesPassThrough(t *testing.T) {
	joints := []mathutil.DualQuat{rigid(mathutil.Vec3{0, 0, 1}, 2, mathutil.Vec3{1, 1, 1})}
	p, n := deformOne(joints, nil, restP, restN)

	assertVec3(t, restP, p)
	assertVec3(t, restN, n)
}

func TestZeroInfluencesWithNoJoints(t *testing.T) {
	p, n := deformOne(nil, []Influence{}, restP, restN)
	assertVec3(t, restP, p)
	assertVec3(t, restN, n)
}

func TestNoJointResolvesToIdentity(t *testing.T) {
	joints := []mathutil.DualQuat{rigid(mathutil.Vec3{0, 1, 0}, 0.4, mathutil.Vec3{})}

	p, n := deformOne(joints, []Influence{{Joint: NoJoint, Weight: 1}}, restP, restN)
	assertVec3(t, restP, p)
	assertVec3(t, restN, n)

	// An absent pivot still seeds the identity, blended with joint 0.
	withNone := Blend(joints, []Influence{{Joint: NoJoint, Weight: 0.5}, {Joint: Joint(0), Weight: 0.5}})
	explicit := Blend([]mathutil.DualQuat{mathutil.DualQuatIdentity(), joints[0]},
		[]Influence{{Joint: Joint(0), Weight: 1}, {Joint: Joint(1), Weight: 0.5}})
	assertVec3(t, explicit.TransformPoint(restP), withNone.TransformPoint(restP))
}

func TestHemisphereInvariance(t *testing.T) {
	a := rigid(mathutil.Vec3{0, 0, 1}, 0.8, mathutil.Vec3{1, 0, 0})
	b := rigid(mathutil.Vec3{1, 1, 0}, -1.9, mathutil.Vec3{0, 2, -1})
	c := rigid(mathutil.Vec3{0, 1, 0}, 2.6, mathutil.Vec3{0, 0, 3})

	weightSets := [][3]float64{
		{1, 0, 0},
		{0.5, 0.5, 0},
		{0.2, 0.3, 0.5},
		{0.7, 0.1, 0.2},
		{0.05, 0.9, 0.05},
	}
	for _, w := range weightSets {
		infl := []Influence{
			{Joint: Joint(0), Weight: w[0]},
			{Joint: Joint(1), Weight: w[1]},
			{Joint: Joint(2), Weight: w[2]},
		}
		baseP, baseN := deformOne([]mathutil.DualQuat{a, b, c}, infl, restP, restN)

		for neg := 0; neg < 3; neg++ {
			joints := []mathutil.DualQuat{a, b, c}
			joints[neg] = joints[neg].Neg()
			p, n := deformOne(joints, infl, restP, restN)
			assertVec3(t, baseP, p, "weights %v, joint %d negated", w, neg)
			assertVec3(t, baseN, n, "weights %v, joint %d negated", w, neg)
		}
	}
}

func TestIdenticalTransformsBlendToTransform(t *testing.T) {
	tr := rigid(mathutil.Vec3{3, -1, 2}, 2.2, mathutil.Vec3{-5, 0.5, 8})
	joints := []mathutil.DualQuat{tr, tr}

	for _, w := range []float64{0.5, 1, 0.1} {
		p, n := deformOne(joints, []Influence{{Joint: Joint(0), Weight: w}, {Joint: Joint(1), Weight: w}}, restP, restN)
		assertVec3(t, tr.TransformPoint(restP), p)
		assertVec3(t, tr.RotateDirection(restN), n)
	}
}

func TestOrderIndependence(t *testing.T) {
	joints := []mathutil.DualQuat{
		rigid(mathutil.Vec3{0, 0, 1}, 0.5, mathutil.Vec3{1, 0, 0}),
		rigid(mathutil.Vec3{1, 0, 0}, -0.6, mathutil.Vec3{0, 1, 0}).Neg(),
		rigid(mathutil.Vec3{0, 1, 1}, 0.9, mathutil.Vec3{0, 0, -2}),
	}
	infl := []Influence{
		{Joint: Joint(0), Weight: 0.5},
		{Joint: Joint(1), Weight: 0.3},
		{Joint: Joint(2), Weight: 0.2},
	}
	wantP, wantN := deformOne(joints, infl, restP, restN)

	perms := [][3]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range perms {
		permuted := []Influence{infl[perm[0]], infl[perm[1]], infl[perm[2]]}
		p, n := deformOne(joints, permuted, restP, restN)
		assertVec3(t, wantP, p, "order %v", perm)
		assertVec3(t, wantN, n, "order %v", perm)

		// The blends differ at most by sign, which is the same transform.
		got := Blend(joints, permuted).Normalize()
		want := Blend(joints, infl).Normalize()
		assert.InDelta(t, 1, math.Abs(got.Rotation().Dot(want.Rotation())), tol, "order %v", perm)
	}
}

// An absent pivot seeds the identity at full weight, so a blend led by
// NoJoint is not a reordering of the same blend led by a joint.
func TestAbsentPivotSeedsFullIdentity(t *testing.T) {
	j := rigid(mathutil.Vec3{0, 0, 1}, 1.2, mathutil.Vec3{2, 0, 0})
	joints := []mathutil.DualQuat{j}
	id := mathutil.DualQuatIdentity()

	noneFirst := []Influence{{Joint: NoJoint, Weight: 0.2}, {Joint: Joint(0), Weight: 0.8}}
	jointFirst := []Influence{{Joint: Joint(0), Weight: 0.8}, {Joint: NoJoint, Weight: 0.2}}

	assert.Equal(t, id.Add(j.Scale(0.8)), Blend(joints, noneFirst))
	assert.Equal(t, j.Scale(0.8).Add(id.Scale(0.2)), Blend(joints, jointFirst))

	p1, _ := deformOne(joints, noneFirst, restP, restN)
	p2, _ := deformOne(joints, jointFirst, restP, restN)
	assert.Greater(t, p1.Sub(p2).Len(), 0.1)
}

func TestHalfTurnBlendFlipsSign(t *testing.T) {
	x := mathutil.Vec3{1, 0, 0}
	// 3π about x is a half turn whose encoding has w < 0, opposite the
	// identity's hemisphere.
	halfTurn := rigid(x, 3*math.Pi, mathutil.Vec3{})
	require.Less(t, halfTurn.Rotation().Dot(mathutil.QuatIdentity()), 0.0)

	joints := []mathutil.DualQuat{mathutil.DualQuatIdentity(), halfTurn}
	infl := []Influence{{Joint: Joint(0), Weight: 0.5}, {Joint: Joint(1), Weight: 0.5}}

	blended := Blend(joints, infl)
	r := blended.Rotation()
	assert.InDelta(t, 0.5, r[0], tol, "flipped half turn contributes +x")
	assert.InDelta(t, 0.5, r[3], tol)
	assert.InDelta(t, math.Sqrt(0.5), blended.Norm(), tol)

	_, n := deformOne(joints, infl, mathutil.Vec3{}, mathutil.Vec3{0, 1, 0})
	assertVec3(t, mathutil.Vec3{0, 0, 1}, n)
}

func TestAntipodalTermsDoNotCancel(t *testing.T) {
	id := mathutil.DualQuatIdentity()
	joints := []mathutil.DualQuat{id, id.Neg()}
	infl := []Influence{{Joint: Joint(0), Weight: 0.5}, {Joint: Joint(1), Weight: 0.5}}

	blended := Blend(joints, infl)
	assert.InDelta(t, 1, blended.Norm(), tol)

	p, n := deformOne(joints, infl, restP, restN)
	assertVec3(t, restP, p)
	assertVec3(t, restN, n)
}

func TestBlendIsNotNormalized(t *testing.T) {
	tr := rigid(mathutil.Vec3{0, 1, 0}, 0.3, mathutil.Vec3{1, 2, 3})
	blended := Blend([]mathutil.DualQuat{tr, tr}, []Influence{
		{Joint: Joint(0), Weight: 0.75},
		{Joint: Joint(1), Weight: 0.75},
	})
	assert.InDelta(t, 1.5, blended.Norm(), tol)
}

func TestDeformLinearCollapsesWhereDualQuatDoesNot(t *testing.T) {
	x := mathutil.Vec3{1, 0, 0}
	joints := []mathutil.DualQuat{mathutil.DualQuatIdentity(), rigid(x, math.Pi, mathutil.Vec3{})}
	infl := [][]Influence{{{Joint: Joint(0), Weight: 0.5}, {Joint: Joint(1), Weight: 0.5}}}
	rest := []mathutil.Vec3{{0, 1, 0}}
	normals := []mathutil.Vec3{{0, 1, 0}}

	dqPos := make([]mathutil.Vec3, 1)
	dqNorm := make([]mathutil.Vec3, 1)
	Deform(rest, normals, joints, infl, dqPos, dqNorm)

	lbPos := make([]mathutil.Vec3, 1)
	lbNorm := make([]mathutil.Vec3, 1)
	DeformLinear(rest, normals, JointMatrices(joints), infl, lbPos, lbNorm)

	assert.InDelta(t, 1, dqPos[0].Len(), tol)
	assert.InDelta(t, 0, lbPos[0].Len(), tol)
}
