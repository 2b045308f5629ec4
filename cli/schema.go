package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/pointview/config"
)

// SchemaAction prints the config file's JSON schema.
func SchemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", schema)
	return nil
}
