// Package cli contains the pointview command line: the web viewer, offline snapshots and point
// inspection, all driven by the same config file.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/pointview/utils"
)

const (
	// Global flags.
	flagConfig   = "config"
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"

	// View flags, shared by every command that builds a scene.
	flagRotateX = "rotate-x"
	flagRotateY = "rotate-y"
	flagZoom    = "zoom"
	flagPanX    = "pan-x"
	flagPanY    = "pan-y"
	flagFine    = "fine"
	flagOverlay = "overlay"

	flagAddress     = "address"
	flagWatch       = "watch"
	flagOut         = "out"
	flagOutDir      = "out-dir"
	flagFormat      = "format"
	flagSupersample = "supersample"
	flagParallel    = "parallel"
	flagLimit       = "limit"
)

var viewFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  flagRotateX,
		Usage: "rotation steps about the X axis before drawing, negative to turn the other way",
	},
	&cli.IntFlag{
		Name:  flagRotateY,
		Usage: "rotation steps about the Y axis before drawing, negative to turn the other way",
	},
	&cli.Float64Flag{
		Name:  flagZoom,
		Usage: "zoom steps before drawing, positive moves the camera toward the points",
	},
	&cli.Float64Flag{
		Name:  flagPanX,
		Usage: "horizontal drag in pixels before drawing",
	},
	&cli.Float64Flag{
		Name:  flagPanY,
		Usage: "vertical drag in pixels before drawing",
	},
	&cli.BoolFlag{
		Name:  flagFine,
		Usage: "use the fine rotation and zoom steps",
	},
	&cli.BoolFlag{
		Name:  flagOverlay,
		Usage: "show the debug overlay",
	},
}

// NewApp returns the pointview command line application writing normal output to out and logs
// and progress to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "pointview",
		Usage:           "view a 3D point list as a rotating wireframe",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level (debug, info, warn, error), overriding the config",
			},
			&cli.PathFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated once it grows large",
			},
		},
		Before: beforeAction,
		After:  afterAction,
		Commands: []*cli.Command{
			{
				Name:      "serve",
				Usage:     "serve the browser viewer",
				ArgsUsage: "[points file]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagAddress,
						Usage: "host:port to listen on, overriding the config",
					},
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "reload the points whenever the file changes",
					},
				}, viewFlags...),
				Action: ServeAction,
			},
			{
				Name:      "snapshot",
				Usage:     "render point files to images",
				ArgsUsage: "[points file...]",
				Description: `Each points file is drawn after the view flags have been applied, as if the keys
had been pressed in the viewer, and written next to --out-dir as <name>.<format>.
With a single file, --out names the image directly and its extension picks the format.`,
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "image `FILE` to write, only with a single points file",
					},
					&cli.PathFlag{
						Name:  flagOutDir,
						Value: ".",
						Usage: "directory to write images to",
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Value: "png",
						Usage: "image format: png, jpg, ppm or qoi",
					},
					&cli.IntFlag{
						Name:  flagSupersample,
						Value: 2,
						Usage: "draw at this multiple of the window size and scale down",
					},
					&cli.IntFlag{
						Name:  flagParallel,
						Value: utils.ParallelFactor,
						Usage: "files to render at once",
					},
				}, viewFlags...),
				Action: SnapshotAction,
			},
			{
				Name:      "inspect",
				Usage:     "print the points with their screen coordinates",
				ArgsUsage: "[points file]",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagLimit,
						Usage: "print at most this many points, 0 for all",
					},
				}, viewFlags...),
				Action: InspectAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: SchemaAction,
			},
		},
	}
}

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
