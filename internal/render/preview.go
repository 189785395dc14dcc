package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

const (
	previewTileWidth    = 16
	previewTileHeight   = 8
	previewBlockHeight  = 8
	previewMargin       = 8
	previewAmbientLight = 0.2
)

// previewLight maps the visible face directions to a brightness factor.
// Faces pointing away from the camera are not drawn.
var previewLight = map[mgl32.Vec3]float64{
	{0, 1, 0}: previewAmbientLight + 0.8,
	{1, 0, 0}: previewAmbientLight + 0.55,
	{0, 0, 1}: previewAmbientLight + 0.35,
}

type previewTriangle struct {
	points [3]image.Point
	depth  float32
	color  color.NRGBA
}

// SavePreview renders an isometric PNG of the batches to path, creating the
// parent directory if needed. The camera looks down from +X+Y+Z.
func SavePreview(path string, batches []*mesh.Batch) error {
	img := RenderPreview(batches)

	if err := ensurePreviewDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// RenderPreview rasterises the batches. An empty input yields a small
// background-only image.
func RenderPreview(batches []*mesh.Batch) *image.NRGBA {
	var tris []previewTriangle
	for _, b := range batches {
		base := toNRGBA(b.Color)
		for face := 0; face < b.FaceCount(); face++ {
			light, ok := previewLight[roundNormal(b.Normal(face))]
			if !ok {
				continue
			}
			shade := applyLighting(base, light)
			for _, t := range b.Triangles[face*2 : face*2+2] {
				tris = append(tris, projectTriangle(t, shade))
			}
		}
	}

	bounds := image.Rect(0, 0, 1, 1)
	for i, t := range tris {
		for j, p := range t.points {
			pixel := image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})}
			if i == 0 && j == 0 {
				bounds = pixel
				continue
			}
			bounds = bounds.Union(pixel)
		}
	}
	bounds = bounds.Inset(-previewMargin)

	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	background := color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	// Painter's order: far triangles first.
	sort.SliceStable(tris, func(i, j int) bool {
		return tris[i].depth < tris[j].depth
	})
	for _, t := range tris {
		pts := make([]image.Point, 3)
		for i, p := range t.points {
			pts[i] = p.Sub(bounds.Min)
		}
		fillPolygon(img, pts, t.color)
	}
	return img
}

func projectTriangle(t mesh.Triangle, col color.NRGBA) previewTriangle {
	var out previewTriangle
	var centroid mgl32.Vec3
	for i, v := range t {
		x := (v[0] - v[2]) * previewTileWidth / 2
		y := (v[0]+v[2])*previewTileHeight/2 - v[1]*previewBlockHeight
		out.points[i] = image.Point{X: int(math.Round(float64(x))), Y: int(math.Round(float64(y)))}
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1.0 / 3)
	out.depth = centroid[0] + centroid[1] + centroid[2]
	out.color = col
	return out
}

func roundNormal(n mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Round(float64(n[0]))),
		float32(math.Round(float64(n[1]))),
		float32(math.Round(float64(n[2]))),
	}
}

func toNRGBA(c world.Color) color.NRGBA {
	r, g, b := c.RGB()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = clamp(factor, 0, 1)
	r := uint8(math.Round(float64(base.R) * factor))
	g := uint8(math.Round(float64(base.G) * factor))
	b := uint8(math.Round(float64(base.B) * factor))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// fillPolygon is a scanline fill over the polygon edges, clipped to img.
func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = minInt(minY, p.Y)
		maxY = maxInt(maxY, p.Y)
	}
	bounds := img.Bounds()
	minY = maxInt(minY, bounds.Min.Y)
	maxY = minInt(maxY, bounds.Max.Y-1)

	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 || y < minInt(y1, y2) || y >= maxInt(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart := maxInt(xs[i], bounds.Min.X)
			xEnd := minInt(xs[i+1], bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func ensurePreviewDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	return nil
}
