// toontab converts typed tabular datasets between Parquet and the
// TOON-TAB text format.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "toontab",
		Usage: "convert typed tabular datasets to and from TOON-TAB text",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			exportCommand,
			importCommand,
			inspectCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "toontab:", err)
		os.Exit(1)
	}
}

// runLogger returns a logger stamped with a fresh conversion run ID,
// so concurrent invocations stay distinguishable in shared logs.
func runLogger(command string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"run":     uuid.NewString(),
		"command": command,
	})
}
