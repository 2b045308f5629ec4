package cli

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/pointview/pointcloud"
	"go.viam.com/pointview/web"
)

// ServeAction serves the browser viewer until interrupted.
func ServeAction(c *cli.Context) error {
	st, err := settingsFromContext(c)
	if err != nil {
		return err
	}
	pointsFile, err := st.pointsFile(c)
	if err != nil {
		return err
	}
	logger := st.logger

	clk := clock.New()
	s, err := newScene(st, pointsFile, clk, logger.Sublogger("scene"))
	if err != nil {
		return err
	}
	if err := viewScriptFromFlags(c).apply(s); err != nil {
		return err
	}
	session := web.NewSession(s, clk, logger.Sublogger("session"))

	if st.conf.Watch || c.Bool(flagWatch) {
		watcher, err := pointcloud.NewFileWatcher(pointsFile, pointcloud.DefaultWatchQuietPeriod, logger.Sublogger("watcher"))
		if err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(watcher.Close)
		session.ReloadOn(watcher.Changes())
		logger.Infow("watching for changes", "file", pointsFile)
	}

	opts, err := webOptions(st, c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return web.RunWeb(ctx, session, opts, logger.Sublogger("web"), func(addr net.Addr) {
		printf(c.App.Writer, "viewing %s at http://%s", s.Source().Name(), addr)
	})
}

func webOptions(st *settings, c *cli.Context) (web.Options, error) {
	renderOpts, err := renderOptions(st, 2)
	if err != nil {
		return web.Options{}, err
	}
	opts := web.Options{
		Address:        st.conf.Web.Address,
		AllowedOrigins: st.conf.Web.AllowedOrigins,
		InputRate:      st.conf.Web.InputRate,
		InputBurst:     st.conf.Web.InputBurst,
		Render:         renderOpts,
	}
	if c.IsSet(flagAddress) {
		opts.Address = c.String(flagAddress)
	}
	return opts, nil
}
