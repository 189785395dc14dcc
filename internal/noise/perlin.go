// Package noise implements a seeded, deterministic gradient noise field with
// a fractal (multi-scale) sum used for terrain heights.
package noise

import "math"

// DefaultSize is the initial feature size used by Fractal.
const DefaultSize = 35.0

// permutation is Ken Perlin's reference ordering of 0..255. Fields copy it
// into their own table and never write to it.
var permutation = [256]uint8{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Field is a pure function of (seed, x, y, z). It holds no mutable state
// after construction and is safe for concurrent use.
type Field struct {
	seed float64
	p    [512]int
}

func New(seed int64) *Field {
	f := &Field{seed: float64(seed)}
	for i := 0; i < 256; i++ {
		f.p[i] = int(permutation[i])
		f.p[256+i] = int(permutation[i])
	}
	return f
}

func (f *Field) Seed() int64 {
	return int64(f.seed)
}

// Sample returns the gradient noise value at (x, y, z), roughly in [-1, 1].
//
// The seed shifts x twice and y once; z is left unshifted. Terrain generated
// by earlier releases depends on this, so it is kept.
func (f *Field) Sample(x, y, z float64) float64 {
	x += f.seed
	y += f.seed
	x += f.seed

	fx := math.Floor(x)
	fy := math.Floor(y)
	fz := math.Floor(z)

	X := int(fx) & 255
	Y := int(fy) & 255
	Z := int(fz) & 255

	x -= fx
	y -= fy
	z -= fz

	u := fade(x)
	v := fade(y)
	w := fade(z)

	p := &f.p
	A := p[X] + Y
	AA := p[A] + Z
	AB := p[A+1] + Z
	B := p[X+1] + Y
	BA := p[B] + Z
	BB := p[B+1] + Z

	return lerp(w,
		lerp(v,
			lerp(u, grad(p[AA], x, y, z), grad(p[BA], x-1, y, z)),
			lerp(u, grad(p[AB], x, y-1, z), grad(p[BB], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(p[AA+1], x, y, z-1), grad(p[BA+1], x-1, y, z-1)),
			lerp(u, grad(p[AB+1], x, y-1, z-1), grad(p[BB+1], x-1, y-1, z-1))))
}

// SampleFractal sums Sample over feature sizes halving from size down to 1,
// weighting each layer by its size, and normalises by the initial size.
func (f *Field) SampleFractal(x, y, z, size float64) float64 {
	initial := size
	if initial < 1 {
		return 0
	}
	value := 0.0
	for size >= 1 {
		value += f.Sample(x/size, y/size, z/size) * size
		size /= 2
	}
	return value / initial
}

// Fractal is SampleFractal with DefaultSize.
func (f *Field) Fractal(x, y, z float64) float64 {
	return f.SampleFractal(x, y, z, DefaultSize)
}

// Fractal2D samples the z=0 plane.
func (f *Field) Fractal2D(x, y float64) float64 {
	return f.SampleFractal(x, y, 0, DefaultSize)
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
