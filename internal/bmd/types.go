package bmd

// Triangle holds polygon type and index triples into vertex/normal/texcoord arrays.
// Polygon == 4 means quad (two triangles: 0-1-2 and 0-2-3).
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16
}

// Mesh holds parsed geometry for one sub-mesh within a BMD file.
// Vertex positions and normals are stored in the space of their owning bone.
type Mesh struct {
	Verts       [][3]float32
	Nodes       []int16 // bone index per vertex
	Normals     [][3]float32
	NormalNodes []int16 // bone index per normal
	UVs         [][2]float32
	Tris        []Triangle
	TexPath     string // texture reference from BMD (e.g. "sword04.jpg")
}

// Action is one animation clip. All bones share its key count.
type Action struct {
	NumKeys int
	// LockPositions holds per-key root positions when the clip has them.
	LockPositions [][3]float32
}

// BoneKeys holds one bone's key frames for one action.
type BoneKeys struct {
	Positions [][3]float32
	Rotations [][3]float32 // Euler XYZ radians
}

// Bone is one node of the skeleton hierarchy.
type Bone struct {
	Name    string
	Parent  int
	IsDummy bool
	Keys    []BoneKeys // indexed by action
}

// Model is a fully parsed BMD file.
type Model struct {
	Name    string
	Version byte
	Meshes  []Mesh
	Bones   []Bone
	Actions []Action
}

// BindPose returns the bone's position and rotation at action 0, key 0,
// the pose BMD vertices are authored against.
func (b Bone) BindPose() (pos, rot [3]float32) {
	if len(b.Keys) == 0 || len(b.Keys[0].Positions) == 0 {
		return pos, rot
	}
	return b.Keys[0].Positions[0], b.Keys[0].Rotations[0]
}
