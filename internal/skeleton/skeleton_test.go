package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/mathutil"
	"mu-dqskin/internal/skin"
)

const tol = 1e-5

func assertVec3(t *testing.T, want, got mathutil.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, msgAndArgs...)
	}
}

// armModel is a root bone at the origin with an elbow 10 units up +y.
// Action 0 has two keys: bind, then the root moved up z and the elbow
// bent about x.
func armModel() *bmd.Model {
	return &bmd.Model{
		Meshes: []bmd.Mesh{{
			Verts:       [][3]float32{{1, 2, 0}, {1, 0, 0}, {1, 5, 0}, {0, 0, 0}},
			Nodes:       []int16{0, 2, 2, 7},
			Normals:     [][3]float32{{0, 0, 1}, {1, 0, 0}},
			NormalNodes: []int16{0, 2},
			Tris: []bmd.Triangle{
				{Polygon: 3, VI: [4]int16{0, 1, 2}, NI: [4]int16{0, 1, 1}},
			},
		}},
		Actions: []bmd.Action{{NumKeys: 2}, {NumKeys: 0}},
		Bones: []bmd.Bone{
			{
				Name:   "root",
				Parent: -1,
				Keys: []bmd.BoneKeys{
					{Positions: [][3]float32{{0, 0, 0}, {0, 0, 4}}, Rotations: [][3]float32{{0, 0, 0}, {0, 0, 1}}},
					{},
				},
			},
			{Parent: -1, IsDummy: true},
			{
				Name:   "elbow",
				Parent: 0,
				Keys: []bmd.BoneKeys{
					{Positions: [][3]float32{{0, 10, 0}, {0, 10, 0}}, Rotations: [][3]float32{{0, 0, 0}, {math.Pi / 2, 0, 0}}},
					{},
				},
			},
		},
	}
}

func TestLocalPoseInterpolates(t *testing.T) {
	m := armModel()
	pose, err := LocalPose(m, 0, 0.5)
	require.NoError(t, err)

	assertVec3(t, mathutil.Vec3{0, 0, 2}, pose[0].Translation())
	want := mathutil.EulerToQuat(0, 0, 0.5)
	assert.InDelta(t, 1, math.Abs(pose[0].Rotation().Dot(want)), tol)
	assert.Equal(t, mathutil.DualQuatIdentity(), pose[1], "dummy bone")
}

func TestLocalPoseWraps(t *testing.T) {
	m := armModel()
	a, err := LocalPose(m, 0, 0)
	require.NoError(t, err)
	for _, f := range []float64{2, 4, -2} {
		b, err := LocalPose(m, 0, f)
		require.NoError(t, err)
		for i := range a {
			assertVec3(t, a[i].Translation(), b[i].Translation(), "frame %v bone %d", f, i)
		}
	}

	b, err := LocalPose(m, 0, -0.5)
	require.NoError(t, err)
	assertVec3(t, mathutil.Vec3{0, 0, 2}, b[0].Translation())
}

func TestLocalPoseErrors(t *testing.T) {
	_, err := LocalPose(armModel(), 5, 0)
	assert.ErrorContains(t, err, "out of range")

	pose, err := LocalPose(armModel(), 1, 0)
	require.NoError(t, err)
	for _, p := range pose {
		assert.Equal(t, mathutil.DualQuatIdentity(), p)
	}
}

func TestWorldPoseChainsParents(t *testing.T) {
	m := armModel()
	local, err := LocalPose(m, 0, 1)
	require.NoError(t, err)
	world := WorldPose(m.Bones, local)

	// Elbow origin: root rotated 1 rad about z and lifted 4 on z.
	rz := mathutil.QuatFromAxisAngle(mathutil.Vec3{0, 0, 1}, 1)
	assertVec3(t, rz.Rotate(mathutil.Vec3{0, 10, 0}).Add(mathutil.Vec3{0, 0, 4}), world[2].Translation())
}

func TestBindMesh(t *testing.T) {
	m := armModel()
	bind := BindPose(m)
	bm := BindMesh(&m.Meshes[0], m.Bones, bind, Options{})

	assertVec3(t, mathutil.Vec3{1, 2, 0}, bm.Rest[0])
	assertVec3(t, mathutil.Vec3{1, 10, 0}, bm.Rest[1])
	assertVec3(t, mathutil.Vec3{1, 15, 0}, bm.Rest[2])
	assertVec3(t, mathutil.Vec3{0, 0, 0}, bm.Rest[3], "bad node stays in place")

	i, ok := bm.Influences[1][0].Joint.Index()
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = bm.Influences[3][0].Joint.Index()
	assert.False(t, ok)

	assertVec3(t, mathutil.Vec3{0, 0, 1}, bm.Normals[0])
	assertVec3(t, mathutil.Vec3{1, 0, 0}, bm.Normals[1])
	assertVec3(t, mathutil.Vec3{0, 0, 1}, bm.Normals[3], "unreferenced vertex gets a default normal")
}

func TestBindMeshFalloff(t *testing.T) {
	m := armModel()
	bm := BindMesh(&m.Meshes[0], m.Bones, BindPose(m), Options{Falloff: 4})

	// Vertex 1 is 1 unit from the elbow origin.
	require.Len(t, bm.Influences[1], 2)
	assert.InDelta(t, 1-0.375, bm.Influences[1][0].Weight, tol)
	assert.InDelta(t, 0.375, bm.Influences[1][1].Weight, tol)
	p, _ := bm.Influences[1][1].Joint.Index()
	assert.Equal(t, 0, p)

	// Vertex 2 is 5 units away; the root has no parent.
	assert.Len(t, bm.Influences[2], 1)
	assert.Len(t, bm.Influences[0], 1)
}

func TestSkinMatchesPosedBones(t *testing.T) {
	m := armModel()
	anim := NewAnimator(m)
	bm := BindMesh(&m.Meshes[0], m.Bones, anim.Bind(), Options{})

	joints, err := anim.Joints(0, 1)
	require.NoError(t, err)

	local, err := LocalPose(m, 0, 1)
	require.NoError(t, err)
	world := WorldPose(m.Bones, local)

	for _, workers := range []int{1, 3} {
		pos := make([]mathutil.Vec3, len(bm.Rest))
		norm := make([]mathutil.Vec3, len(bm.Rest))
		bm.Skin(joints, workers, pos, norm)

		for vi := 0; vi < 3; vi++ {
			node := m.Meshes[0].Nodes[vi]
			want := world[node].TransformPoint(mathutil.Vec3From32(m.Meshes[0].Verts[vi]))
			assertVec3(t, want, pos[vi], "vertex %d", vi)
		}
		assertVec3(t, world[2].RotateDirection(mathutil.Vec3{1, 0, 0}), norm[1])
	}

	lpos := make([]mathutil.Vec3, len(bm.Rest))
	lnorm := make([]mathutil.Vec3, len(bm.Rest))
	bm.SkinLinear(skin.JointMatrices(joints), lpos, lnorm)
	assertVec3(t, world[2].TransformPoint(mathutil.Vec3{1, 5, 0}), lpos[2])
}

func TestBindFrameLeavesRestPose(t *testing.T) {
	m := armModel()
	anim := NewAnimator(m)

	joints, err := anim.Joints(0, 0)
	require.NoError(t, err)
	for i, j := range joints {
		assertVec3(t, mathutil.Vec3{}, j.Translation(), "joint %d", i)
		assert.InDelta(t, 1, math.Abs(j.Rotation().Dot(mathutil.QuatIdentity())), tol, "joint %d", i)
	}

	for _, falloff := range []float64{0, 8} {
		bm := BindMesh(&m.Meshes[0], m.Bones, anim.Bind(), Options{Falloff: falloff})
		pos := make([]mathutil.Vec3, len(bm.Rest))
		norm := make([]mathutil.Vec3, len(bm.Rest))
		bm.Skin(joints, 1, pos, norm)
		for vi := range bm.Rest {
			assertVec3(t, bm.Rest[vi], pos[vi], "falloff %v vertex %d", falloff, vi)
			assertVec3(t, bm.Normals[vi], norm[vi], "falloff %v normal %d", falloff, vi)
		}

		bm.SkinLinear(skin.JointMatrices(joints), pos, norm)
		for vi := range bm.Rest {
			assertVec3(t, bm.Rest[vi], pos[vi], "linear falloff %v vertex %d", falloff, vi)
		}
	}
	// Vertex 2 sits 5 units out along the elbow.
	bm := BindMesh(&m.Meshes[0], m.Bones, anim.Bind(), Options{})
	assertVec3(t, mathutil.Vec3{1, 15, 0}, bm.Rest[2])
}
