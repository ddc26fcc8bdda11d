package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags select the network rules and its genesis.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network rules preset (main|test|fake)",
			Value: "fake",
		},
		cli.StringFlag{
			Name:  "genesis",
			Usage: "Genesis TOML file; a generated fake genesis is used when empty",
		},
		cli.IntFlag{
			Name:  "fakenet",
			Usage: "Number of generated fake holders when no genesis file is given",
			Value: 3,
		},
	}
}

// RewardsFlags tune the rewards engine. They override the network preset and
// must match across all nodes of a network.
func RewardsFlags() []cli.Flag {
	return []cli.Flag{
		cli.Uint64Flag{
			Name:  "rewards.interval",
			Usage: "Blocks between two minting blocks (0 keeps the network default)",
		},
		cli.Uint64Flag{
			Name:  "rewards.slack",
			Usage: "Extra blocks of balance history kept below the retention window",
		},
	}
}

// SimulationFlags drive the block simulator.
func SimulationFlags() []cli.Flag {
	return []cli.Flag{
		cli.Uint64Flag{
			Name:  "blocks",
			Usage: "Number of blocks to simulate",
			Value: 100,
		},
	}
}

// AdminFlags identify the caller of administrative commands.
func AdminFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "signer",
			Usage: "Account signing the call; the root origin is used when empty",
		},
	}
}
