package shape

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangleHitTest(t *testing.T) {
	r := &Rectangle{Base: Base{X: 10, Y: 20}, Width: 30, Height: 40}
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{10, 20}, true},
		{Point{40, 60}, true},
		{Point{25, 30}, true},
		{Point{9.9, 30}, false},
		{Point{25, 60.1}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.HitTest(tc.p), "point %+v", tc.p)
	}
}

func TestRectangleDraggedUpLeft(t *testing.T) {
	r := &Rectangle{Base: Base{X: 100, Y: 100}, Width: -50, Height: -20}
	assert.True(t, r.HitTest(Point{60, 90}))
	assert.Equal(t, Rect{X: 50, Y: 80, W: 50, H: 20}, r.BoundingBox())
}

func TestCircleHitTestMatchesDistance(t *testing.T) {
	c := &Circle{Base: Base{X: 100, Y: 100}, Radius: 50}
	for x := 40.0; x <= 160; x += 7 {
		for y := 40.0; y <= 160; y += 7 {
			want := math.Hypot(x-100, y-100) <= 50
			assert.Equal(t, want, c.HitTest(Point{x, y}), "point %v,%v", x, y)
		}
	}
	assert.Equal(t, Rect{X: 50, Y: 50, W: 100, H: 100}, c.BoundingBox())
}

func TestTriangleHitTest(t *testing.T) {
	tri := &Triangle{Base: Base{X: 100, Y: 100}, P2: Point{-50, 80}, P3: Point{50, 80}}
	assert.True(t, tri.HitTest(Point{100, 100}), "apex")
	assert.True(t, tri.HitTest(Point{100, 150}), "interior")
	assert.True(t, tri.HitTest(Point{60, 175}), "near base")
	assert.False(t, tri.HitTest(Point{60, 110}), "outside left edge")
	assert.False(t, tri.HitTest(Point{100, 181}), "below base")
	assert.Equal(t, Rect{X: 50, Y: 100, W: 100, H: 80}, tri.BoundingBox())
}

func TestPathHitTestThreshold(t *testing.T) {
	p := &Path{Base: Base{X: 10, Y: 10, StrokeWidth: 4}, Points: []Point{{0, 0}, {100, 0}}}
	// threshold = 4/2 + 5 = 7
	assert.True(t, p.HitTest(Point{50, 17}))
	assert.False(t, p.HitTest(Point{50, 17.1}))
	assert.True(t, p.HitTest(Point{117, 10}), "beyond end within threshold")
	assert.False(t, p.HitTest(Point{118, 10}))
}

func TestPathNeedsTwoPoints(t *testing.T) {
	p := &Path{Base: Base{StrokeWidth: 10}, Points: []Point{{5, 5}}}
	assert.False(t, p.HitTest(Point{5, 5}))
}

func TestDistanceToZeroLengthSegment(t *testing.T) {
	d := DistanceToSegment(Point{3, 4}, Point{0, 0}, Point{0, 0})
	assert.InDelta(t, 5, d, 1e-9)
}

func TestPathAppendIsRelative(t *testing.T) {
	p := &Path{Base: Base{X: 10, Y: 20}}
	p.Append(Point{15, 25})
	require.Len(t, p.Points, 1)
	assert.Equal(t, Point{5, 5}, p.Points[0])
	assert.Equal(t, Rect{X: 15, Y: 25}, p.BoundingBox())
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := &Path{Base: Base{ID: "a"}, Points: []Point{{1, 1}, {2, 2}}}
	c := p.Clone().(*Path)
	c.Points[0] = Point{9, 9}
	c.MoveTo(40, 40)
	assert.Equal(t, Point{1, 1}, p.Points[0])
	assert.Equal(t, Point{0, 0}, p.Origin())
}

func TestListJSONKeepsKinds(t *testing.T) {
	in := List{
		&Rectangle{Base: Base{ID: "r"}, Width: 3, Height: 4},
		&Path{Base: Base{ID: "e"}, Erase: true, Points: []Point{{1, 2}}},
		&Image{Base: Base{ID: "i"}, Width: 2, Height: 2, Data: []byte{1, 2, 3}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out List
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	assert.Equal(t, KindRectangle, out[0].Kind())
	assert.Equal(t, KindEraser, out[1].Kind())
	assert.Equal(t, []byte{1, 2, 3}, out[2].(*Image).Data)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"hexagon"}`))
	assert.Error(t, err)
}
