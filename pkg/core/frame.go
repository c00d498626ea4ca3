package core

import "math"

// Frame is an affine transform stored as three axis columns plus an origin.
// Transforming a point p gives X*p.X + Y*p.Y + Z*p.Z + O.
type Frame struct {
	X, Y, Z, O Vec3
}

// IdentityFrame returns the identity transform
func IdentityFrame() Frame {
	return Frame{
		X: NewVec3(1, 0, 0),
		Y: NewVec3(0, 1, 0),
		Z: NewVec3(0, 0, 1),
	}
}

// FrameFromMat4 builds a frame from 16 column-major values. The bottom row
// of the matrix is assumed to be (0, 0, 0, 1) and is ignored.
func FrameFromMat4(m [16]float64) Frame {
	return Frame{
		X: NewVec3(m[0], m[1], m[2]),
		Y: NewVec3(m[4], m[5], m[6]),
		Z: NewVec3(m[8], m[9], m[10]),
		O: NewVec3(m[12], m[13], m[14]),
	}
}

// FrameFromMat3x4 builds a frame from 12 column-major values.
func FrameFromMat3x4(m [12]float64) Frame {
	return Frame{
		X: NewVec3(m[0], m[1], m[2]),
		Y: NewVec3(m[3], m[4], m[5]),
		Z: NewVec3(m[6], m[7], m[8]),
		O: NewVec3(m[9], m[10], m[11]),
	}
}

// Mat4 returns the frame as 16 column-major values
func (f Frame) Mat4() [16]float64 {
	return [16]float64{
		f.X.X, f.X.Y, f.X.Z, 0,
		f.Y.X, f.Y.Y, f.Y.Z, 0,
		f.Z.X, f.Z.Y, f.Z.Z, 0,
		f.O.X, f.O.Y, f.O.Z, 1,
	}
}

// TransformPoint applies the full affine transform to p
func (f Frame) TransformPoint(p Vec3) Vec3 {
	return f.TransformVector(p).Add(f.O)
}

// TransformVector applies only the linear part of the transform to v
func (f Frame) TransformVector(v Vec3) Vec3 {
	return f.X.Multiply(v.X).Add(f.Y.Multiply(v.Y)).Add(f.Z.Multiply(v.Z))
}

// TransformDirection transforms v and normalizes the result
func (f Frame) TransformDirection(v Vec3) Vec3 {
	return f.TransformVector(v).Normalize()
}

// Mul composes two frames. The result applies other first, then f.
func (f Frame) Mul(other Frame) Frame {
	return Frame{
		X: f.TransformVector(other.X),
		Y: f.TransformVector(other.Y),
		Z: f.TransformVector(other.Z),
		O: f.TransformPoint(other.O),
	}
}

// Determinant returns the determinant of the linear part
func (f Frame) Determinant() float64 {
	return f.X.Dot(f.Y.Cross(f.Z))
}

// Inverse returns the inverse affine transform. A singular frame returns
// the identity.
func (f Frame) Inverse() Frame {
	det := f.Determinant()
	if det == 0 {
		return IdentityFrame()
	}

	// rows of the inverse linear part
	r0 := f.Y.Cross(f.Z).Multiply(1 / det)
	r1 := f.Z.Cross(f.X).Multiply(1 / det)
	r2 := f.X.Cross(f.Y).Multiply(1 / det)

	inv := Frame{
		X: NewVec3(r0.X, r1.X, r2.X),
		Y: NewVec3(r0.Y, r1.Y, r2.Y),
		Z: NewVec3(r0.Z, r1.Z, r2.Z),
	}
	inv.O = inv.TransformVector(f.O).Negate()
	return inv
}

// Equals reports whether all columns match within tolerance
func (f Frame) Equals(other Frame, tolerance float64) bool {
	return f.X.Equals(other.X, tolerance) &&
		f.Y.Equals(other.Y, tolerance) &&
		f.Z.Equals(other.Z, tolerance) &&
		f.O.Equals(other.O, tolerance)
}

// TranslationFrame returns a frame translating by t
func TranslationFrame(t Vec3) Frame {
	f := IdentityFrame()
	f.O = t
	return f
}

// ScalingFrame returns a frame scaling each axis by s
func ScalingFrame(s Vec3) Frame {
	return Frame{
		X: NewVec3(s.X, 0, 0),
		Y: NewVec3(0, s.Y, 0),
		Z: NewVec3(0, 0, s.Z),
	}
}

// RotationFrame returns a rotation of angle radians around axis
func RotationFrame(axis Vec3, angle float64) Frame {
	s, c := math.Sin(angle), math.Cos(angle)
	a := axis.Normalize()
	t := 1 - c
	return Frame{
		X: NewVec3(c+t*a.X*a.X, t*a.X*a.Y+s*a.Z, t*a.X*a.Z-s*a.Y),
		Y: NewVec3(t*a.X*a.Y-s*a.Z, c+t*a.Y*a.Y, t*a.Y*a.Z+s*a.X),
		Z: NewVec3(t*a.X*a.Z+s*a.Y, t*a.Y*a.Z-s*a.X, c+t*a.Z*a.Z),
	}
}

// LookAtFrame returns the frame of a viewer at eye looking toward center.
// The Z axis points from center to eye. With flip set, the X and Z axes are
// negated so that Z points toward center, which is the convention of
// left-handed scene files.
func LookAtFrame(eye, center, up Vec3, flip bool) Frame {
	w := eye.Subtract(center).Normalize()
	u := up.Cross(w).Normalize()
	v := w.Cross(u).Normalize()
	if flip {
		w = w.Negate()
		u = u.Negate()
	}
	return Frame{X: u, Y: v, Z: w, O: eye}
}
