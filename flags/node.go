package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local instance: identity and storage.
func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom instance name attached to logs and metrics",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Storage preset (lite|full|archive|default)",
			Value: "default",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to the database cache",
			Value: 1024,
		},
		cli.IntFlag{
			Name:  "handles",
			Usage: "Number of open file handles for the database",
			Value: 512,
		},
		cli.StringFlag{
			Name:  "gcmode",
			Usage: `Balance history retention ("full" prunes, "archive" keeps everything)`,
			Value: "full",
		},
		cli.StringFlag{
			Name:  "db.preset",
			Usage: "Database backend (memory|ldb-1)",
			Value: "ldb-1",
		},
	}
}
