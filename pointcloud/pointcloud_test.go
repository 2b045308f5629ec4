package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointListBasic(t *testing.T) {
	pl := NewPointList([]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 5, Z: 0}, {X: 1, Y: 2, Z: 3}})

	// duplicates are kept
	test.That(t, pl.Size(), test.ShouldEqual, 3)
	test.That(t, pl.At(0), test.ShouldResemble, pl.At(2))

	pl.Set(1, r3.Vector{X: 7})
	test.That(t, pl.At(1), test.ShouldResemble, r3.Vector{X: 7})
	test.That(t, pl.Points()[1], test.ShouldResemble, r3.Vector{X: 7})

	var visited []int
	pl.Iterate(func(i int, p r3.Vector) bool {
		visited = append(visited, i)
		return i < 1
	})
	test.That(t, visited, test.ShouldResemble, []int{0, 1})
}

func TestPointListClone(t *testing.T) {
	pl := NewPointList([]r3.Vector{{X: 1}, {Y: 1}})
	cloned := pl.Clone()
	cloned.Set(0, r3.Vector{Z: 9})

	test.That(t, pl.At(0), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, cloned.At(0), test.ShouldResemble, r3.Vector{Z: 9})
	test.That(t, cloned.Size(), test.ShouldEqual, pl.Size())
}

func TestMetaData(t *testing.T) {
	pl := NewPointList([]r3.Vector{{X: 1, Y: -2, Z: 3}, {X: -4, Y: 5, Z: 0}})
	meta := pl.MetaData()
	test.That(t, meta, test.ShouldResemble, MetaData{MinX: -4, MaxX: 1, MinY: -2, MaxY: 5, MinZ: 0, MaxZ: 3})
	test.That(t, meta.Center(), test.ShouldResemble, r3.Vector{X: -1.5, Y: 1.5, Z: 1.5})

	// bounds follow in-place edits
	pl.Points()[0] = r3.Vector{X: 10}
	test.That(t, pl.MetaData().MaxX, test.ShouldEqual, 10.)
}
