// Package skeleton turns BMD bone animation into the per-joint dual
// quaternions consumed by the skinning evaluator.
package skeleton

import (
	"fmt"
	"math"

	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/mathutil"
)

// Pose holds one rigid transform per bone, indexed like Model.Bones.
type Pose []mathutil.DualQuat

// LocalPose samples every bone's keys of the given action at a fractional
// frame. Frames wrap around the action's key count. Translation is lerped
// and rotation slerped between neighbouring keys. Dummy bones and bones
// without keys get the identity.
func LocalPose(m *bmd.Model, action int, frame float64) (Pose, error) {
	if action < 0 || action >= len(m.Actions) {
		return nil, fmt.Errorf("skeleton: action %d out of range (%d actions)", action, len(m.Actions))
	}
	n := m.Actions[action].NumKeys

	pose := make(Pose, len(m.Bones))
	for i := range pose {
		pose[i] = mathutil.DualQuatIdentity()
	}
	if n == 0 {
		return pose, nil
	}

	f := math.Mod(frame, float64(n))
	if f < 0 {
		f += float64(n)
	}
	k0 := int(f)
	k1 := (k0 + 1) % n
	t := f - float64(k0)

	for i, b := range m.Bones {
		if b.IsDummy || action >= len(b.Keys) || len(b.Keys[action].Positions) != n {
			continue
		}
		keys := b.Keys[action]
		p0, p1 := mathutil.Vec3From32(keys.Positions[k0]), mathutil.Vec3From32(keys.Positions[k1])
		q0, q1 := eulerQuat(keys.Rotations[k0]), eulerQuat(keys.Rotations[k1])
		pose[i] = mathutil.DualQuatFromRotationTranslation(mathutil.Slerp(q0, q1, t), p0.Lerp(p1, t))
	}
	return pose, nil
}

func eulerQuat(r [3]float32) mathutil.Quat {
	return mathutil.EulerToQuat(float64(r[0]), float64(r[1]), float64(r[2]))
}

// WorldPose chains local transforms by parent index. Parents must come
// before their children, as they do in BMD files; any other parent index
// makes the bone a root.
func WorldPose(bones []bmd.Bone, local Pose) Pose {
	world := make(Pose, len(local))
	for i, l := range local {
		p := bones[i].Parent
		if p >= 0 && p < i && !bones[i].IsDummy {
			world[i] = world[p].Mul(l)
		} else {
			world[i] = l
		}
	}
	return world
}

// BindPose is the world pose at action 0, key 0.
func BindPose(m *bmd.Model) Pose {
	if len(m.Actions) == 0 {
		pose := make(Pose, len(m.Bones))
		for i := range pose {
			pose[i] = mathutil.DualQuatIdentity()
		}
		return pose
	}
	local, _ := LocalPose(m, 0, 0)
	return WorldPose(m.Bones, local)
}

// SkinningTransforms returns, per bone, the transform that carries
// bind-pose model space to posed model space: pose · bind⁻¹.
func SkinningTransforms(bind, pose Pose) []mathutil.DualQuat {
	out := make([]mathutil.DualQuat, len(pose))
	for i := range pose {
		out[i] = pose[i].Mul(bind[i].Conj())
	}
	return out
}

// Animator samples joint transforms of one model.
type Animator struct {
	model *bmd.Model
	bind  Pose
}

// NewAnimator caches the model's bind pose.
func NewAnimator(m *bmd.Model) *Animator {
	return &Animator{model: m, bind: BindPose(m)}
}

// Bind returns the cached bind pose.
func (a *Animator) Bind() Pose {
	return a.bind
}

// Joints returns the skinning transforms for a frame of an action.
func (a *Animator) Joints(action int, frame float64) ([]mathutil.DualQuat, error) {
	local, err := LocalPose(a.model, action, frame)
	if err != nil {
		return nil, err
	}
	return SkinningTransforms(a.bind, WorldPose(a.model.Bones, local)), nil
}
