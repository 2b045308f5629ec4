package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"go.viam.com/pointview/config"
	"go.viam.com/pointview/logging"
)

const (
	settingsKey = "settings"
	// logFileMaxSizeMB is the size a log file may reach before it is rotated.
	logFileMaxSizeMB = 16
)

// settings is what every command starts from: the config and a logger writing to the app's error
// output.
type settings struct {
	conf    *config.Config
	logger  logging.Logger
	closers []io.Closer
}

// beforeAction reads the config and builds the logger. Running with no subcommand only prints
// help, so nothing is read then.
func beforeAction(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return nil
	}

	conf := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		conf, err = config.Read(path)
		if err != nil {
			return err
		}
	}

	if c.IsSet(flagLogLevel) {
		if _, err := logging.LevelFromString(c.String(flagLogLevel)); err != nil {
			return errors.Wrapf(err, "invalid --%s", flagLogLevel)
		}
		conf.LogLevel = c.String(flagLogLevel)
	}
	if c.IsSet(flagLogFile) {
		conf.LogFile = c.Path(flagLogFile)
	}

	logger := logging.NewBlankLogger("pointview")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(conf.Level())
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
		logging.GlobalLogLevel.SetLevel(zap.DebugLevel)
	}

	s := &settings{conf: conf, logger: logger}
	if conf.LogFile != "" {
		appender := logging.NewFileAppender(conf.LogFile, logFileMaxSizeMB)
		logger.AddAppender(appender)
		s.closers = append(s.closers, appender)
	}
	if conf.ConfigFilePath != "" {
		logger.Debugw("config loaded", "path", conf.ConfigFilePath)
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[settingsKey] = s
	return nil
}

func afterAction(c *cli.Context) error {
	s, ok := c.App.Metadata[settingsKey].(*settings)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, settingsKey)

	err := s.logger.Sync()
	for _, closer := range s.closers {
		err = multierr.Combine(err, closer.Close())
	}
	return err
}

func settingsFromContext(c *cli.Context) (*settings, error) {
	s, ok := c.App.Metadata[settingsKey].(*settings)
	if !ok {
		return nil, errors.New("settings were not loaded")
	}
	return s, nil
}

// pointsFiles returns the positional arguments, or the configured points file when there are none.
func (s *settings) pointsFiles(c *cli.Context) []string {
	if c.Args().Present() {
		return c.Args().Slice()
	}
	return []string{s.conf.PointsFile}
}

// pointsFile is pointsFiles for commands that take at most one file.
func (s *settings) pointsFile(c *cli.Context) (string, error) {
	files := s.pointsFiles(c)
	if len(files) != 1 {
		return "", errors.Errorf("expected at most one points file, got %d", len(files))
	}
	return files[0], nil
}
