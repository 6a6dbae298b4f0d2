package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/config"
	"mu-dqskin/internal/mathutil"
	"mu-dqskin/internal/skeleton"
	"mu-dqskin/internal/skin"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (.json or .toml) for key material")
	action := flag.Int("action", 0, "Action for the volume report")
	falloff := flag.Float64("falloff", 20, "Parent-bone blend distance used for the report")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-config file] [-action n] [-falloff d] model.bmd")
		os.Exit(2)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	keys, err := cfg.Keys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m, err := bmd.Parse(flag.Arg(0), keys)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model: %s v%d\n", m.Name, m.Version)
	fmt.Printf("Meshes: %d, Bones: %d, Actions: %d\n", len(m.Meshes), len(m.Bones), len(m.Actions))
	for i, mesh := range m.Meshes {
		fmt.Printf("  Mesh[%d]: verts=%d, normals=%d, tris=%d, texture=%q\n",
			i, len(mesh.Verts), len(mesh.Normals), len(mesh.Tris), mesh.TexPath)
	}

	fmt.Println("\nSkeleton:")
	for i, b := range m.Bones {
		if b.IsDummy {
			fmt.Printf("  [%3d] (dummy)\n", i)
			continue
		}
		pos, rot := b.BindPose()
		fmt.Printf("  [%3d] %-24s parent=%-4d pos=(%.1f, %.1f, %.1f) rot=(%.1f°, %.1f°, %.1f°)\n",
			i, b.Name, b.Parent, pos[0], pos[1], pos[2],
			rot[0]*180/math.Pi, rot[1]*180/math.Pi, rot[2]*180/math.Pi)
	}

	fmt.Println("\nActions:")
	for i, a := range m.Actions {
		lock := ""
		if len(a.LockPositions) > 0 {
			lock = " (locked positions)"
		}
		fmt.Printf("  [%3d] keys=%d%s\n", i, a.NumKeys, lock)
	}

	if *action < 0 || *action >= len(m.Actions) {
		return
	}

	anim := skeleton.NewAnimator(m)
	bind := anim.Bind()
	meshes := skeleton.Bind(m, bind, skeleton.Options{Falloff: *falloff})

	// Blended vertices only: rigid ones keep their distance under both methods.
	fmt.Printf("\nVolume report, action %d, falloff %g\n", *action, *falloff)
	fmt.Println("  key   blended   DQS ratio   LBS ratio")
	for k := 0; k < max(m.Actions[*action].NumKeys, 1); k++ {
		joints, err := anim.Joints(*action, float64(k))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		mats := skin.JointMatrices(joints)
		var n int
		var dq, lb float64
		for i := range meshes {
			bm := &meshes[i]
			dqPos := make([]mathutil.Vec3, len(bm.Rest))
			lbPos := make([]mathutil.Vec3, len(bm.Rest))
			norms := make([]mathutil.Vec3, len(bm.Rest))
			bm.Skin(joints, 1, dqPos, norms)
			bm.SkinLinear(mats, lbPos, norms)
			for v, infl := range bm.Influences {
				if len(infl) < 2 {
					continue
				}
				b, ok := infl[0].Joint.Index()
				if !ok {
					continue
				}
				origin := bind[b].Translation()
				rest := bm.Rest[v].Sub(origin).Len()
				if rest < 1e-6 {
					continue
				}
				posed := joints[b].TransformPoint(origin)
				dq += dqPos[v].Sub(posed).Len() / rest
				lb += lbPos[v].Sub(posed).Len() / rest
				n++
			}
		}
		if n == 0 {
			fmt.Printf("  %3d   %7d           -           -\n", k, 0)
			continue
		}
		fmt.Printf("  %3d   %7d   %9.4f   %9.4f\n", k, n, dq/float64(n), lb/float64(n))
	}
}
