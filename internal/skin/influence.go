package skin

import (
	"fmt"
	"math"
)

// JointRef is an optional index into the joint transform array.
// The zero value is NoJoint.
type JointRef struct {
	idx uint32
	ok  bool
}

// NoJoint binds an influence to the identity transform.
var NoJoint = JointRef{}

// Joint returns a reference to joint i. It panics if i is negative or
// does not fit a uint32.
func Joint(i int) JointRef {
	if i < 0 || int64(i) > math.MaxUint32 {
		panic(fmt.Sprintf("skin: joint index %d out of range", i))
	}
	return JointRef{idx: uint32(i), ok: true}
}

// Index reports the referenced joint, or false for NoJoint.
func (r JointRef) Index() (int, bool) {
	return int(r.idx), r.ok
}

func (r JointRef) String() string {
	if !r.ok {
		return "none"
	}
	return fmt.Sprintf("#%d", r.idx)
}

// Influence is one (joint, weight) pair of a vertex.
type Influence struct {
	Joint  JointRef
	Weight float64
}

// InfluencesFromLists converts parallel per-vertex weight and joint id
// lists, where an id of -1 means "no joint".
func InfluencesFromLists(weights [][]float64, ids [][]int) ([][]Influence, error) {
	if len(weights) != len(ids) {
		return nil, invalidf("%d weight lists for %d joint id lists", len(weights), len(ids))
	}
	out := make([][]Influence, len(weights))
	for v := range weights {
		if len(weights[v]) != len(ids[v]) {
			return nil, invalidf("vertex %d: %d weights for %d joint ids", v, len(weights[v]), len(ids[v]))
		}
		infl := make([]Influence, len(ids[v]))
		for j, id := range ids[v] {
			switch {
			case id == -1:
				infl[j] = Influence{Joint: NoJoint, Weight: weights[v][j]}
			case id < -1:
				return nil, invalidf("vertex %d influence %d: joint id %d", v, j, id)
			default:
				infl[j] = Influence{Joint: Joint(id), Weight: weights[v][j]}
			}
		}
		out[v] = infl
	}
	return out, nil
}
