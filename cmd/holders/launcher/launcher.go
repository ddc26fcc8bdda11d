package launcher

import (
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/opera-holder-rewards/evmcore"
	"github.com/rony4d/opera-holder-rewards/flags"
	"github.com/rony4d/opera-holder-rewards/holders"
	"github.com/rony4d/opera-holder-rewards/holders/hstore"
	"github.com/rony4d/opera-holder-rewards/integration"
	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/metrics"
	"github.com/rony4d/opera-holder-rewards/opera"
	"github.com/rony4d/opera-holder-rewards/opera/genesis"
)

// fakeHolderBalance is the balance of every generated fake holder: 1M tokens
// with 18 decimals.
var fakeHolderBalance = new(big.Int).Mul(big.NewInt(1e6), big.NewInt(1e18))

func withFlags(extra ...[]cli.Flag) []cli.Flag {
	all := flags.AllFlags()
	for _, f := range extra {
		all = append(all, f...)
	}
	return all
}

func newApp() *cli.App {
	app := flags.NewApp("Coin-age weighted holder rewards for the Opera asset chain")
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Simulate blocks over a genesis and distribute holder rewards",
			Flags:  withFlags(flags.SimulationFlags()),
			Action: runCommand,
		},
		{
			Name:  "schedule",
			Usage: "Inspect or replace the weight schedule",
			Subcommands: []cli.Command{
				{
					Name:   "show",
					Usage:  "Print the stored weight schedule and engine progress",
					Flags:  withFlags(),
					Action: scheduleShowCommand,
				},
				{
					Name:      "set",
					Usage:     "Replace the whole weight schedule",
					ArgsUsage: "<offset=shares>...",
					Flags:     withFlags(flags.AdminFlags()),
					Action:    scheduleSetCommand,
				},
			},
		},
		{
			Name:      "snapshot",
			Usage:     "Print the balances recorded at a block",
			ArgsUsage: "<block>",
			Flags:     withFlags(),
			Action:    snapshotCommand,
		},
		{
			Name:   "dumpconfig",
			Usage:  "Show the merged configuration values",
			Flags:  withFlags(),
			Action: dumpConfigCommand,
		},
	}
	return app
}

// Launch runs the tool with the given command line.
func Launch(args []string) error {
	return newApp().Run(args)
}

type env struct {
	cfg    Config
	rules  opera.Rules
	preset integration.PresetConfig
	log    *logrus.Logger
}

func setup(ctx *cli.Context) (*env, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	log, err := SetupLogger(cfg.Node.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	preset, err := cfg.StorePreset()
	if err != nil {
		return nil, err
	}
	if preset.DBPreset != integration.DBPresetMemory {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return nil, err
		}
	}
	return &env{cfg: cfg, rules: rules, preset: preset, log: log}, nil
}

func (e *env) openStore() (*hstore.Store, error) {
	return integration.OpenStore(e.preset, e.cfg.Node.DataDir)
}

// loadGenesis loads the configured genesis file, or generates a fake one.
func (e *env) loadGenesis() (*genesis.Genesis, error) {
	if e.cfg.Opera.Genesis != "" {
		return genesis.Load(e.cfg.Opera.Genesis)
	}
	if e.rules.NetworkID != opera.FakeNetworkID {
		return nil, fmt.Errorf("network %q needs a --genesis file", e.rules.Name)
	}
	g := &genesis.Genesis{
		Network:  e.rules.Name,
		Schedule: map[string]uint32{"0": 1},
		Pool:     genesis.Pool{PerCycle: genesis.NewAmount(fakeHolderBalance)},
	}
	for addr, balance := range evmcore.FakeGenesis(e.cfg.Opera.FakeNetSize, fakeHolderBalance) {
		g.Accounts = append(g.Accounts, genesis.Account{Address: addr, Balance: genesis.NewAmount(balance)})
	}
	return g, nil
}

func (e *env) startMetrics() {
	if !e.preset.EnableMetrics {
		return
	}
	metrics.BuildInfo.WithLabelValues(flags.Version, e.rules.Name).Set(1)
	addr := net.JoinHostPort(e.cfg.Metrics.Addr, strconv.Itoa(e.cfg.Metrics.Port))
	go func() {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			e.log.WithError(err).Error("Failed to start metrics server listener")
			return
		}
		e.log.WithField("address", listener.Addr().String()).Info("Metrics server listening")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.Serve(listener, mux); err != nil {
			e.log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

func runCommand(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	g, err := e.loadGenesis()
	if err != nil {
		return err
	}
	storage, err := integration.OpenStorage(e.preset, e.cfg.Node.DataDir)
	if err != nil {
		return err
	}
	defer storage.Close()
	e.startMetrics()

	sim, err := integration.NewSimulator(g, e.rules, e.preset, storage, e.log.WithField("instance", e.cfg.Node.Name))
	if err != nil {
		return err
	}
	reports, err := sim.Run(ctx.Uint64("blocks"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tOUTCOME\tPOOL\tPAYOUTS\tDISTRIBUTED\tREMAINDER")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", r.Block, r.Skipped, r.Pool, len(r.Payouts), r.Distributed(), r.Remainder)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "state root %s after block %d\n", sim.Root().Hex(), sim.Next()-1)
	return nil
}

func scheduleShowCommand(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	schedule, err := store.Schedule()
	if err != nil {
		return err
	}
	state, err := store.State()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OFFSET\tSHARES")
	for _, entry := range schedule.Entries() {
		fmt.Fprintf(w, "%d\t%d\n", entry.Offset, entry.Shares)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "schedule hash %s\n", schedule.Hash())
	if state.Initialized {
		fmt.Fprintf(ctx.App.Writer, "last block %d, last mint %d, cycles %d, skipped %d, pruned rows %d\n",
			state.LastBlock, state.LastMint, state.Cycles, state.Skipped, state.Pruned)
	}
	return nil
}

func scheduleSetCommand(ctx *cli.Context) error {
	schedule, err := parseSchedule(ctx.Args())
	if err != nil {
		return err
	}
	origin, err := parseOrigin(ctx.String("signer"))
	if err != nil {
		return err
	}
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	if e.preset.DBPreset == integration.DBPresetMemory {
		e.log.Warn("Schedule written to an in-memory database will be lost on exit")
	}

	var auth holders.Authorizer = holders.RootAuthorizer{}
	if e.cfg.Opera.Genesis != "" {
		g, err := genesis.Load(e.cfg.Opera.Genesis)
		if err != nil {
			return err
		}
		auth = holders.NewAdminSet(g.Admins...)
	}

	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return holders.NewAdmin(store, auth, e.log).SetSchedule(origin, schedule)
}

func snapshotCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected exactly one block number")
	}
	block, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block %q: %w", ctx.Args().First(), err)
	}
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tBALANCE")
	var (
		rows  int
		total = new(big.Int)
	)
	err = store.ForEachBalance(idx.Block(block), func(addr common.Address, balance *big.Int) bool {
		fmt.Fprintf(w, "%s\t%s\n", addr.Hex(), balance)
		total.Add(total, balance)
		rows++
		return true
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%d accounts holding %s at block %d\n", rows, total, block)
	return nil
}

func dumpConfigCommand(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	return toml.NewEncoder(ctx.App.Writer).Encode(&cfg)
}

// parseSchedule reads "offset=shares" pairs. An empty list clears the
// schedule.
func parseSchedule(args []string) (inter.Schedule, error) {
	schedule := make(inter.Schedule, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid schedule entry %q, want offset=shares", arg)
		}
		offset, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid offset in %q: %w", arg, err)
		}
		shares, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid shares in %q: %w", arg, err)
		}
		if _, dup := schedule[idx.Block(offset)]; dup {
			return nil, fmt.Errorf("duplicate offset %d", offset)
		}
		schedule[idx.Block(offset)] = inter.Shares(shares)
	}
	return schedule, nil
}

var errBadSigner = errors.New("signer is not a hex address")

func parseOrigin(signer string) (holders.Origin, error) {
	if signer == "" {
		return holders.RootOrigin(), nil
	}
	if !common.IsHexAddress(signer) {
		return holders.Origin{}, fmt.Errorf("%w: %q", errBadSigner, signer)
	}
	return holders.SignedOrigin(common.HexToAddress(signer)), nil
}
