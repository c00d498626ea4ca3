package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"x cross y", NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
		{"y cross z", NewVec3(0, 1, 0), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
		{"parallel", NewVec3(2, 0, 0), NewVec3(5, 0, 0), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Cross(tt.b))
		})
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 0, 4).Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-12)
	assert.True(t, v.Equals(NewVec3(0.6, 0, 0.8), 1e-12))

	// zero stays zero instead of producing NaN
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestVec3_Helpers(t *testing.T) {
	v := NewVec3(1, -2, 4)
	assert.Equal(t, 4.0, v.MaxComponent())
	assert.InDelta(t, 1.0, v.Mean(), 1e-12)
	assert.Equal(t, NewVec3(1, 2, 4), v.Apply(math.Abs))
	assert.Equal(t, NewVec3(1, -2, 1), v.Min(Splat(1)))
	assert.Equal(t, NewVec3(1, 1, 4), v.Max(Splat(1)))
	assert.False(t, v.IsZero())
	assert.True(t, Vec3{}.IsZero())
}

func TestAABB_Transform(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	moved := box.Transform(TranslationFrame(NewVec3(10, 0, 0)))
	assert.True(t, moved.Min.Equals(NewVec3(9, -1, -1), 1e-12))
	assert.True(t, moved.Max.Equals(NewVec3(11, 1, 1), 1e-12))

	rotated := NewAABB(NewVec3(0, 0, 0), NewVec3(2, 1, 1)).Transform(RotationFrame(NewVec3(0, 0, 1), math.Pi/2))
	assert.True(t, rotated.Min.Equals(NewVec3(-1, 0, 0), 1e-9))
	assert.True(t, rotated.Max.Equals(NewVec3(0, 2, 1), 1e-9))

	assert.False(t, EmptyAABB().IsValid())
	assert.Equal(t, box, EmptyAABB().Union(box))
}
