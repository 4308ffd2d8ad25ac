package math

import "github.com/chewxy/math32"

// Vec4 is a 4D vector. Mesh tangents use the W component for handedness.
type Vec4 struct {
	X, Y, Z, W float32
}

// Vec3 returns the XYZ components as Vec3.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Add returns v + other.
func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{v.X + other.X, v.Y + other.Y, v.Z + other.Z, v.W + other.W}
}

// Scale returns v * scalar.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Dot returns the dot product.
func (v Vec4) Dot(other Vec4) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z + v.W*other.W
}

// Length returns the magnitude.
func (v Vec4) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}
