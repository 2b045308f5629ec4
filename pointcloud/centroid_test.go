package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCloudCentroid(t *testing.T) {
	two := NewPointList([]r3.Vector{{}, {X: 2}})
	c, err := CloudCentroid(two, CentroidPairwise)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, r3.Vector{X: 1})

	single := NewPointList([]r3.Vector{{X: 3, Y: -1, Z: 2}})
	c, err = CloudCentroid(single, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, r3.Vector{X: 3, Y: -1, Z: 2})

	// The pairwise fold is ((0+4)/2 + 8)/2 = 5, not the mean of 4.
	three := NewPointList([]r3.Vector{{}, {X: 4}, {X: 8, Y: 8}})
	c, err = CloudCentroid(three, CentroidPairwise)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, r3.Vector{X: 5, Y: 4})

	c, err = CloudCentroid(three, CentroidMean)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.X, test.ShouldAlmostEqual, 4)
	test.That(t, c.Y, test.ShouldAlmostEqual, 8./3)
	test.That(t, c.Z, test.ShouldAlmostEqual, 0)
}

func TestCloudCentroidErrors(t *testing.T) {
	_, err := CloudCentroid(NewPointList(nil), CentroidPairwise)
	test.That(t, err, test.ShouldBeError, ErrEmptyPointList)

	_, err = CloudCentroid(nil, CentroidMean)
	test.That(t, err, test.ShouldBeError, ErrEmptyPointList)

	_, err = CloudCentroid(NewPointList([]r3.Vector{{}}), "median")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "median")

	test.That(t, CentroidMean.Validate(), test.ShouldBeNil)
	test.That(t, CentroidMode("median").Validate(), test.ShouldNotBeNil)
}
