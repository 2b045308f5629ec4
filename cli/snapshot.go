package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/pointview/render"
	"go.viam.com/pointview/utils"
)

type snapshotJob struct {
	pointsFile string
	imageFile  string
}

// SnapshotAction renders every points file to an image after replaying the view flags.
func SnapshotAction(c *cli.Context) error {
	st, err := settingsFromContext(c)
	if err != nil {
		return err
	}
	jobs, err := snapshotJobs(c, st.pointsFiles(c))
	if err != nil {
		return err
	}
	renderOpts, err := renderOptions(st, c.Int(flagSupersample))
	if err != nil {
		return err
	}
	renderer, err := render.New(renderOpts)
	if err != nil {
		return err
	}
	vs := viewScriptFromFlags(c)

	spinner := startSpinner(c, fmt.Sprintf("rendering %d file(s)", len(jobs)))
	start := time.Now()

	group, ctx := errgroup.WithContext(c.Context)
	parallel := c.Int(flagParallel)
	if parallel < 1 {
		parallel = 1
	}
	group.SetLimit(parallel)
	for _, job := range jobs {
		job := job
		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger := st.logger.Sublogger(filepath.Base(job.pointsFile))
			_, frame, err := buildFrame(st, job.pointsFile, vs, logger)
			if err != nil {
				return err
			}
			img, err := renderer.Render(frame)
			if err != nil {
				return errors.Wrapf(err, "cannot render %s", job.pointsFile)
			}
			if err := render.WriteImage(job.imageFile, img); err != nil {
				return err
			}
			logger.Debugw("snapshot written", "image", job.imageFile, "points", len(frame.Points))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		spinner.fail(err.Error())
		return err
	}
	spinner.success(fmt.Sprintf("rendered %d file(s) in %s", len(jobs), time.Since(start).Round(time.Millisecond)))

	for _, job := range jobs {
		printf(c.App.Writer, "%s -> %s", job.pointsFile, job.imageFile)
	}
	return nil
}

// snapshotJobs pairs each points file with the image it is rendered to.
func snapshotJobs(c *cli.Context, pointsFiles []string) ([]snapshotJob, error) {
	if out := c.Path(flagOut); out != "" {
		if len(pointsFiles) != 1 {
			return nil, errors.Errorf("--%s needs exactly one points file, got %d", flagOut, len(pointsFiles))
		}
		if _, ok := utils.MimeTypeFromPath(out); !ok {
			return nil, errors.Errorf("unsupported image format for %q", out)
		}
		return []snapshotJob{{pointsFile: pointsFiles[0], imageFile: out}}, nil
	}

	ext := "." + strings.TrimPrefix(strings.ToLower(c.String(flagFormat)), ".")
	if _, ok := utils.MimeTypeFromPath(ext); !ok {
		return nil, errors.Errorf("unsupported image format %q", c.String(flagFormat))
	}
	outDir := c.Path(flagOutDir)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create %q", outDir)
	}

	jobs := make([]snapshotJob, 0, len(pointsFiles))
	seen := map[string]string{}
	for _, pointsFile := range pointsFiles {
		base := filepath.Base(pointsFile)
		imageFile := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
		if other, ok := seen[imageFile]; ok {
			return nil, errors.Errorf("%s and %s would both be written to %s", other, pointsFile, imageFile)
		}
		seen[imageFile] = pointsFile
		jobs = append(jobs, snapshotJob{pointsFile: pointsFile, imageFile: imageFile})
	}
	return jobs, nil
}

// progress reports on a long running command. It is silent unless the error output is a terminal.
type progress struct {
	spinner *pterm.SpinnerPrinter
}

func startSpinner(c *cli.Context, text string) progress {
	if !isTerminal(c.App.ErrWriter) {
		return progress{}
	}
	spinner, err := pterm.DefaultSpinner.
		WithWriter(c.App.ErrWriter).
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return progress{}
	}
	return progress{spinner: spinner}
}

func (p progress) success(msg string) {
	if p.spinner != nil {
		p.spinner.Success(msg)
	}
}

func (p progress) fail(msg string) {
	if p.spinner != nil {
		p.spinner.Fail(msg)
	}
}
