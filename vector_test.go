package main

import (
	"math"
	"testing"
)

func TestVecAddSubScale(t *testing.T) {
	v := Vec2{3, 4}.Add(Vec2{1, -2})
	if v.X != 4 || v.Y != 2 {
		t.Errorf("add: got %+v", v)
	}
	v = Vec2{3, 4}.Sub(Vec2{1, 1})
	if v.X != 2 || v.Y != 3 {
		t.Errorf("sub: got %+v", v)
	}
	v = Vec2{3, 4}.Scale(2)
	if v.X != 6 || v.Y != 8 {
		t.Errorf("scale: got %+v", v)
	}
}

func TestVecLengthDistance(t *testing.T) {
	if l := (Vec2{3, 4}).Length(); l != 5 {
		t.Errorf("length: got %f", l)
	}
	if d := (Vec2{1, 1}).Distance(Vec2{4, 5}); d != 5 {
		t.Errorf("distance: got %f", d)
	}
}

func TestVecNormalize(t *testing.T) {
	n := Vec2{10, 0}.Normalize()
	if n.X != 1 || n.Y != 0 {
		t.Errorf("normalize: got %+v", n)
	}
	n = Vec2{3, 4}.Normalize()
	if math.Abs(n.Length()-1) > 1e-9 {
		t.Errorf("normalize length: got %f", n.Length())
	}
	// Zero vector stays zero instead of producing NaN
	n = Vec2{}.Normalize()
	if n.X != 0 || n.Y != 0 {
		t.Errorf("normalize zero: got %+v", n)
	}
}

func TestVecDot(t *testing.T) {
	if d := (Vec2{1, 2}).Dot(Vec2{3, 4}); d != 11 {
		t.Errorf("dot: got %f", d)
	}
}
