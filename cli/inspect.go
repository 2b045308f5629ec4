package cli

import (
	"os"
	"strconv"

	"github.com/docker/go-units"
	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/scene"
	"go.viam.com/pointview/spatialmath"
)

// InspectAction prints every point of a file with where it lands on screen after the view flags
// have been replayed, followed by how far the points lie from the pivot and the bounding box
// they fill.
func InspectAction(c *cli.Context) error {
	st, err := settingsFromContext(c)
	if err != nil {
		return err
	}
	pointsFile, err := st.pointsFile(c)
	if err != nil {
		return err
	}
	info, err := os.Stat(pointsFile)
	if err != nil {
		return errors.Wrap(err, "cannot inspect points file")
	}

	_, frame, err := buildFrame(st, pointsFile, viewScriptFromFlags(c), st.logger)
	if err != nil {
		return err
	}

	printf(c.App.Writer, "%s: %d points, %s", pointsFile, len(frame.Points3D), units.HumanSize(float64(info.Size())))
	printf(c.App.Writer, "%s", frame.RotationInfo())
	printf(c.App.Writer, "%s", pointsTable(frame, c.Int(flagLimit), terminalWidth(c.App.Writer)))

	summary, err := pivotDistances(frame)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "distance to pivot: min %.3f, median %.3f, mean %.3f, max %.3f, stddev %.3f",
		summary.min, summary.median, summary.mean, summary.max, summary.stddev)

	meta := pointcloud.NewPointList(frame.Points3D).MetaData()
	printf(c.App.Writer, "bounds: x [%.3f, %.3f], y [%.3f, %.3f], z [%.3f, %.3f], center %s",
		meta.MinX, meta.MaxX, meta.MinY, meta.MaxY, meta.MinZ, meta.MaxZ, scene.PointLabel(meta.Center()))
	return nil
}

// pointsTable lays out at most limit points, all of them if limit is not positive. A positive
// width caps the row length.
func pointsTable(frame scene.RenderFrame, limit, width int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if width > 0 {
		t.SetAllowedRowLength(width)
	}
	t.AppendHeader(table.Row{"#", "X", "Y", "Z", "Screen X", "Screen Y"})
	for i, p := range frame.Points3D {
		if limit > 0 && i >= limit {
			t.AppendRow(table.Row{"...", "", "", "", "", ""})
			break
		}
		sx, sy := screenCells(frame.Points[i])
		t.AppendRow(table.Row{i, coordinate(p.X), coordinate(p.Y), coordinate(p.Z), sx, sy})
	}
	sx, sy := screenCells(frame.PivotScreen)
	t.AppendFooter(table.Row{"pivot", coordinate(frame.Pivot.X), coordinate(frame.Pivot.Y), coordinate(frame.Pivot.Z), sx, sy})
	return t.Render()
}

func coordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// screenCells formats a projected point. Points at the camera depth project to infinity and are
// shown as such.
func screenCells(p r2.Point) (string, string) {
	if !spatialmath.IsFinitePoint(p) {
		return "-", "-"
	}
	return coordinate(p.X), coordinate(p.Y)
}

type distanceSummary struct {
	min, median, mean, max, stddev float64
}

func pivotDistances(frame scene.RenderFrame) (distanceSummary, error) {
	distances := make(stats.Float64Data, 0, len(frame.Points3D))
	for _, p := range frame.Points3D {
		distances = append(distances, spatialmath.Distance(p, frame.Pivot))
	}

	var summary distanceSummary
	var err error
	for _, stat := range []struct {
		into *float64
		fn   func(stats.Float64Data) (float64, error)
	}{
		{&summary.min, stats.Min},
		{&summary.median, stats.Median},
		{&summary.mean, stats.Mean},
		{&summary.max, stats.Max},
		{&summary.stddev, stats.StandardDeviation},
	} {
		if *stat.into, err = stat.fn(distances); err != nil {
			return distanceSummary{}, errors.Wrap(err, "cannot summarize distances to the pivot")
		}
	}
	return summary, nil
}
