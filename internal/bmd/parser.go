package bmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// ErrNoLEAKey is returned for v15 files when Keys.LEA is not set.
var ErrNoLEAKey = errors.New("bmd: v15 file needs an LEA key")

// Limits that reject garbage headers before allocating.
const (
	maxMeshes  = 100
	maxBones   = 1000
	maxActions = 1000
)

// Parse reads a BMD file and returns the model with all animation keys.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func Parse(path string, keys Keys) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	return ParseBytes(path, raw, keys)
}

// ParseBytes parses an in-memory BMD file. name is used in errors only.
func ParseBytes(name string, raw []byte, keys Keys) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("bmd: invalid header in %s", name)
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v%d header in %s", version, name)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v%d data in %s", version, name)
		}
		if version == 12 {
			data = decryptXOR(raw[8:8+size], keys.XOR)
			break
		}
		if len(keys.LEA) != 32 {
			return nil, fmt.Errorf("%w: %s", ErrNoLEAKey, name)
		}
		data = decryptLEA(raw[8:8+size], keys.LEA)
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse(name)
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data []byte
	off  int
}

// short reports whether fewer than n bytes remain and, if so, exhausts the reader.
func (r *reader) short(n int) bool {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return true
	}
	return false
}

func (r *reader) readStr(n int) string {
	if r.short(n) {
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	if i := strings.IndexByte(string(s), 0); i >= 0 {
		return string(s[:i])
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	return int16(r.readU16())
}

func (r *reader) readU16() uint16 {
	if r.short(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.short(4) {
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *reader) readVec3() [3]float32 {
	return [3]float32{r.readF32(), r.readF32(), r.readF32()}
}

func (r *reader) readByte() byte {
	if r.short(1) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) eof() bool {
	return r.off >= len(r.data)
}

func (r *reader) parse(name string) (*Model, error) {
	m := &Model{Name: r.readStr(32)}
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > maxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d in %s", meshCount, name)
	}
	if boneCount > maxBones || actionCount > maxActions {
		return nil, fmt.Errorf("bmd: invalid bone/action count %d/%d in %s", boneCount, actionCount, name)
	}

	m.Meshes = make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		mesh, err := r.parseMesh()
		if err != nil {
			return nil, fmt.Errorf("bmd: mesh %d in %s: %w", i, name, err)
		}
		m.Meshes = append(m.Meshes, mesh)
	}

	m.Actions = make([]Action, actionCount)
	for a := range m.Actions {
		numKeys := int(r.readI16())
		if numKeys < 0 {
			return nil, fmt.Errorf("bmd: action %d: negative key count in %s", a, name)
		}
		act := Action{NumKeys: numKeys}
		if r.readByte() > 0 {
			act.LockPositions = make([][3]float32, numKeys)
			for k := range act.LockPositions {
				act.LockPositions[k] = r.readVec3()
			}
		}
		m.Actions[a] = act
	}

	m.Bones = make([]Bone, 0, boneCount)
	for b := 0; b < boneCount; b++ {
		if r.readByte() > 0 {
			m.Bones = append(m.Bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{
			Name:   r.readStr(32),
			Parent: int(r.readI16()),
			Keys:   make([]BoneKeys, actionCount),
		}
		for a, act := range m.Actions {
			if act.NumKeys == 0 {
				continue
			}
			keys := BoneKeys{
				Positions: make([][3]float32, act.NumKeys),
				Rotations: make([][3]float32, act.NumKeys),
			}
			for k := range keys.Positions {
				keys.Positions[k] = r.readVec3()
			}
			for k := range keys.Rotations {
				keys.Rotations[k] = r.readVec3()
			}
			bone.Keys[a] = keys
		}
		if r.eof() && b < boneCount-1 {
			return nil, fmt.Errorf("bmd: truncated at bone %d of %d in %s", b, boneCount, name)
		}
		m.Bones = append(m.Bones, bone)
	}

	return m, nil
}

func (r *reader) parseMesh() (Mesh, error) {
	nv := int(r.readI16())
	nn := int(r.readI16())
	ntc := int(r.readI16())
	nt := int(r.readI16())
	_ = r.readI16() // texture index

	if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
		return Mesh{}, fmt.Errorf("negative element count")
	}

	// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
	mesh := Mesh{
		Verts:       make([][3]float32, nv),
		Nodes:       make([]int16, nv),
		Normals:     make([][3]float32, nn),
		NormalNodes: make([]int16, nn),
		UVs:         make([][2]float32, ntc),
		Tris:        make([]Triangle, 0, nt),
	}
	for j := 0; j < nv; j++ {
		mesh.Nodes[j] = r.readI16()
		_ = r.readI16()
		mesh.Verts[j] = r.readVec3()
	}

	// Normals: 20 bytes each (node:i16, pad:i16, nx:f32, ny:f32, nz:f32, bind:i16, pad:i16)
	for j := 0; j < nn; j++ {
		mesh.NormalNodes[j] = r.readI16()
		_ = r.readI16()
		mesh.Normals[j] = r.readVec3()
		_ = r.readI16() // bindVertex
		_ = r.readI16()
	}

	// TexCoords: 8 bytes each (u:f32, v:f32)
	for j := 0; j < ntc; j++ {
		mesh.UVs[j] = [2]float32{r.readF32(), r.readF32()}
	}

	// Triangles: 64 bytes each
	for j := 0; j < nt; j++ {
		base := r.off
		if r.short(64) {
			return Mesh{}, fmt.Errorf("truncated triangle %d of %d", j, nt)
		}
		var tri Triangle
		tri.Polygon = int(r.data[base])
		for k := 0; k < 4; k++ {
			tri.VI[k] = int16(binary.LittleEndian.Uint16(r.data[base+2+k*2:]))
			tri.NI[k] = int16(binary.LittleEndian.Uint16(r.data[base+10+k*2:]))
			tri.TI[k] = int16(binary.LittleEndian.Uint16(r.data[base+18+k*2:]))
		}
		mesh.Tris = append(mesh.Tris, tri)
		r.off += 64
	}

	mesh.TexPath = strings.ReplaceAll(r.readStr(32), "\\", "/")
	return mesh, nil
}
