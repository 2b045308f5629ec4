package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyPointList is returned when a centroid is requested for a list with no points.
var ErrEmptyPointList = errors.New("point list is empty, centroid is undefined")

// CentroidMode selects how CloudCentroid combines points.
type CentroidMode string

const (
	// CentroidPairwise starts at the first point and averages the running value with each
	// following point in turn. Later points weigh more than earlier ones.
	CentroidPairwise CentroidMode = "pairwise"
	// CentroidMean is the arithmetic mean of all points.
	CentroidMean CentroidMode = "mean"
)

// Validate returns an error for unknown modes.
func (mode CentroidMode) Validate() error {
	switch mode {
	case CentroidPairwise, CentroidMean:
		return nil
	default:
		return errors.Errorf("unknown centroid mode %q, expected %q or %q", mode, CentroidPairwise, CentroidMean)
	}
}

// CloudCentroid returns the pivot of the list according to mode. An empty mode is pairwise.
func CloudCentroid(pl *PointList, mode CentroidMode) (r3.Vector, error) {
	if pl == nil || pl.Size() == 0 {
		return r3.Vector{}, ErrEmptyPointList
	}

	switch mode {
	case CentroidPairwise, "":
		mid := pl.At(0)
		for _, p := range pl.Points()[1:] {
			mid = r3.Vector{X: (mid.X + p.X) / 2, Y: (mid.Y + p.Y) / 2, Z: (mid.Z + p.Z) / 2}
		}
		return mid, nil
	case CentroidMean:
		xs := make([]float64, pl.Size())
		ys := make([]float64, pl.Size())
		zs := make([]float64, pl.Size())
		pl.Iterate(func(i int, p r3.Vector) bool {
			xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
			return true
		})
		return r3.Vector{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}, nil
	default:
		return r3.Vector{}, mode.Validate()
	}
}
