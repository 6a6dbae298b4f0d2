package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/sync/errgroup"

	"mu-dqskin/internal/mathutil"
	"mu-dqskin/internal/raster"
	"mu-dqskin/internal/skeleton"
	"mu-dqskin/internal/skin"
)

// Config holds all shared resources for rendering one action.
type Config struct {
	OutputDir   string
	Animator    *skeleton.Animator
	Meshes      []skeleton.BoundMesh
	Action      int
	NumKeys     int
	FrameStep   float64
	Linear      bool // linear blend instead of dual quaternions
	Textures    raster.TextureResolver
	RenderSize  int
	Supersample int
	Workers     int
	Log         *slog.Logger
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Frame   int
	Time    float64 // position in key frames
	Image   string  // path relative to OutputDir
	Success bool
	Error   string
}

// Frames lists the key-frame times rendered for an action of numKeys keys.
// An action without keys still renders its bind pose once.
func Frames(numKeys int, step float64) []float64 {
	if numKeys <= 0 || step <= 0 {
		return []float64{0}
	}
	n := int(math.Ceil(float64(numKeys)/step - 1e-9))
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// Run renders every frame of the action using a bounded worker pool.
// Frames not started when ctx is cancelled are reported as failed.
func Run(ctx context.Context, cfg Config) []Result {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	times := Frames(cfg.NumKeys, cfg.FrameStep)
	results := make([]Result, len(times))
	var processed atomic.Int64

	size := cfg.RenderSize * max(cfg.Supersample, 1)
	var rest [][]mathutil.Vec3
	for _, m := range cfg.Meshes {
		rest = append(rest, m.Rest)
	}
	cam := raster.FitCamera(raster.DefaultView, size, size/16, rest...)

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					log.Info("rendering", "done", p, "total", len(times),
						"fps", float64(p)/time.Since(start).Seconds())
				}
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(max(cfg.Workers, 1))
	for i, t := range times {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Frame: i, Time: t, Error: err.Error()}
				return nil
			}
			results[i] = processFrame(cfg, cam, i, t)
			processed.Add(1)
			return nil
		})
	}
	err := g.Wait()
	close(done)
	if err != nil {
		log.Error("frame pool", "err", err)
	}

	return results
}

func processFrame(cfg Config, cam raster.Camera, frame int, t float64) Result {
	res := Result{
		Frame: frame,
		Time:  t,
		Image: filepath.Join(fmt.Sprintf("%d", cfg.Action), fmt.Sprintf("%04d.webp", frame)),
	}

	joints, err := cfg.Animator.Joints(cfg.Action, t)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	surfaces := Skin(cfg.Meshes, joints, cfg.Linear)
	img := raster.Render(surfaces, cam, cfg.Textures)
	if cfg.Supersample > 1 {
		img = raster.Downsample(img, cfg.RenderSize)
	}

	outPath := filepath.Join(cfg.OutputDir, res.Image)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}
	f, err := os.Create(outPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		res.Error = fmt.Sprintf("WebP encode: %v", err)
		return res
	}
	res.Success = true
	return res
}

// Skin deforms every bound mesh for one set of joint transforms.
func Skin(meshes []skeleton.BoundMesh, joints []mathutil.DualQuat, linear bool) []raster.Surface {
	var mats []mathutil.Mat4
	if linear {
		mats = skin.JointMatrices(joints)
	}
	out := make([]raster.Surface, len(meshes))
	for i := range meshes {
		bm := &meshes[i]
		s := raster.Surface{
			Positions: make([]mathutil.Vec3, len(bm.Rest)),
			Normals:   make([]mathutil.Vec3, len(bm.Rest)),
			Mesh:      bm.Mesh,
		}
		if linear {
			bm.SkinLinear(mats, s.Positions, s.Normals)
		} else {
			// Frames already run in parallel.
			bm.Skin(joints, 1, s.Positions, s.Normals)
		}
		out[i] = s
	}
	return out
}
