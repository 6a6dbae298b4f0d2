package skeleton

import (
	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/mathutil"
	"mu-dqskin/internal/skin"
)

// Options controls how BMD meshes are bound for skinning.
type Options struct {
	// Falloff is the distance from a bone's origin within which a vertex
	// shares weight with the parent bone, reaching half at the origin.
	// Zero keeps BMD's rigid one-bone binding.
	Falloff float64
}

// BoundMesh is a BMD mesh lifted to bind-pose model space, with one
// normal and one influence list per vertex.
type BoundMesh struct {
	Rest       []mathutil.Vec3
	Normals    []mathutil.Vec3
	Influences [][]skin.Influence
	Mesh       *bmd.Mesh
}

// Bind binds every mesh of m.
func Bind(m *bmd.Model, bind Pose, opts Options) []BoundMesh {
	out := make([]BoundMesh, len(m.Meshes))
	for i := range m.Meshes {
		out[i] = BindMesh(&m.Meshes[i], m.Bones, bind, opts)
	}
	return out
}

// BindMesh moves vertices and normals from bone space to model space by
// the bind pose and builds their influence lists. Vertices whose bone is
// out of range stay where they are and get NoJoint.
func BindMesh(mesh *bmd.Mesh, bones []bmd.Bone, bind Pose, opts Options) BoundMesh {
	bm := BoundMesh{
		Rest:       make([]mathutil.Vec3, len(mesh.Verts)),
		Normals:    make([]mathutil.Vec3, len(mesh.Verts)),
		Influences: make([][]skin.Influence, len(mesh.Verts)),
		Mesh:       mesh,
	}

	for vi, v := range mesh.Verts {
		p := mathutil.Vec3From32(v)
		node := int(mesh.Nodes[vi])
		if node < 0 || node >= len(bind) {
			bm.Rest[vi] = p
			bm.Influences[vi] = []skin.Influence{{Joint: skin.NoJoint, Weight: 1}}
			continue
		}
		bm.Rest[vi] = bind[node].TransformPoint(p)
		bm.Influences[vi] = influences(bones, bind, node, bm.Rest[vi], opts.Falloff)
	}

	bm.accumulateNormals(mesh, bind)
	return bm
}

func influences(bones []bmd.Bone, bind Pose, node int, rest mathutil.Vec3, falloff float64) []skin.Influence {
	self := []skin.Influence{{Joint: skin.Joint(node), Weight: 1}}
	parent := bones[node].Parent
	if falloff <= 0 || parent < 0 || parent >= node || bones[parent].IsDummy {
		return self
	}
	d := rest.Sub(bind[node].Translation()).Len()
	if d >= falloff {
		return self
	}
	wp := 0.5 * (1 - d/falloff)
	return []skin.Influence{
		{Joint: skin.Joint(node), Weight: 1 - wp},
		{Joint: skin.Joint(parent), Weight: wp},
	}
}

// accumulateNormals averages, per vertex, the bind-space normals that
// triangles reference at that vertex.
func (bm *BoundMesh) accumulateNormals(mesh *bmd.Mesh, bind Pose) {
	for _, tri := range mesh.Tris {
		corners := 3
		if tri.Polygon == 4 {
			corners = 4
		}
		for k := 0; k < corners; k++ {
			vi, ni := int(tri.VI[k]), int(tri.NI[k])
			if vi < 0 || vi >= len(bm.Normals) || ni < 0 || ni >= len(mesh.Normals) {
				continue
			}
			n := mathutil.Vec3From32(mesh.Normals[ni])
			if node := int(mesh.NormalNodes[ni]); node >= 0 && node < len(bind) {
				n = bind[node].RotateDirection(n)
			}
			bm.Normals[vi] = bm.Normals[vi].Add(n)
		}
	}
	for i, n := range bm.Normals {
		if n = n.Normalize(); n == (mathutil.Vec3{}) {
			n = mathutil.Vec3{0, 0, 1}
		}
		bm.Normals[i] = n
	}
}

// Skin deforms bm by joints into outPos and outNorm, which must have
// len(bm.Rest) entries. workers > 1 splits the vertices across goroutines.
func (bm *BoundMesh) Skin(joints []mathutil.DualQuat, workers int, outPos, outNorm []mathutil.Vec3) {
	if workers > 1 {
		skin.DeformParallel(workers, bm.Rest, bm.Normals, joints, bm.Influences, outPos, outNorm)
		return
	}
	skin.Deform(bm.Rest, bm.Normals, joints, bm.Influences, outPos, outNorm)
}

// SkinLinear is Skin with linear blend skinning.
func (bm *BoundMesh) SkinLinear(joints []mathutil.Mat4, outPos, outNorm []mathutil.Vec3) {
	skin.DeformLinear(bm.Rest, bm.Normals, joints, bm.Influences, outPos, outNorm)
}
