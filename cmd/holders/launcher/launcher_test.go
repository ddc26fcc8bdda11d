package launcher

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-holder-rewards/holders"
	"github.com/rony4d/opera-holder-rewards/inter"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"opera-holders"}, args...))
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	require := require.New(t)

	out, err := runApp(t, "run", "--preset", "lite", "--blocks", "20", "--log.verbosity", "0")
	require.NoError(err)
	require.Contains(out, "BLOCK")
	require.Contains(out, "distributed")
	require.Contains(out, "after block 20")
}

func TestRunCommandNeedsGenesisOutsideFakenet(t *testing.T) {
	_, err := runApp(t, "run", "--network", "main", "--preset", "lite", "--log.verbosity", "0")
	require.Error(t, err)
}

func TestScheduleCommands(t *testing.T) {
	require := require.New(t)
	storage := []string{"--datadir", t.TempDir(), "--cache", "16", "--handles", "16", "--log.verbosity", "0"}

	cmd := func(args ...string) []string {
		return append(append(append([]string{}, args[:2]...), storage...), args[2:]...)
	}

	_, err := runApp(t, cmd("schedule", "set", "0=1", "10=2")...)
	require.NoError(err)

	out, err := runApp(t, cmd("schedule", "show")...)
	require.NoError(err)
	require.Contains(out, inter.Schedule{0: 1, 10: 2}.Hash().String())

	_, err = runApp(t, cmd("schedule", "set", "--signer", common.HexToAddress("0x01").Hex(), "5=5")...)
	require.ErrorIs(err, holders.ErrUnauthorized)

	out, err = runApp(t, cmd("schedule", "show")...)
	require.NoError(err)
	require.Contains(out, inter.Schedule{0: 1, 10: 2}.Hash().String())
}

func TestRunResumesAndSnapshot(t *testing.T) {
	require := require.New(t)
	storage := []string{"--datadir", t.TempDir(), "--cache", "16", "--handles", "16", "--gcmode", "archive", "--log.verbosity", "0"}

	out, err := runApp(t, append(append([]string{"run"}, storage...), "--blocks", "20")...)
	require.NoError(err)
	require.Contains(out, "after block 20")

	out, err = runApp(t, append(append([]string{"run"}, storage...), "--blocks", "20")...)
	require.NoError(err)
	require.Contains(out, "after block 40")

	out, err = runApp(t, append(append([]string{"snapshot"}, storage...), "40")...)
	require.NoError(err)
	require.Contains(out, "ACCOUNT")
	require.Contains(out, "3 accounts holding")
	require.Contains(out, "at block 40")

	out, err = runApp(t, append(append([]string{"snapshot"}, storage...), "41")...)
	require.NoError(err)
	require.Contains(out, "0 accounts holding 0 at block 41")

	_, err = runApp(t, append([]string{"snapshot"}, storage...)...)
	require.Error(err)
	_, err = runApp(t, append(append([]string{"snapshot"}, storage...), "x")...)
	require.Error(err)
}

func TestDumpConfig(t *testing.T) {
	out, err := runApp(t, "dumpconfig", "--network", "test", "--rewards.slack", "7")
	require.NoError(t, err)
	require.Contains(t, out, `NetworkName = "test"`)
	require.Contains(t, out, "RetentionSlack = 7")
}

func TestParseSchedule(t *testing.T) {
	require := require.New(t)

	schedule, err := parseSchedule([]string{"0=1", "86400=2", "172800=0"})
	require.NoError(err)
	require.Equal(inter.Schedule{0: 1, 86400: 2, 172800: 0}, schedule)

	schedule, err = parseSchedule(nil)
	require.NoError(err)
	require.Empty(schedule)

	for _, bad := range [][]string{{"1"}, {"x=1"}, {"1=-1"}, {"1=4294967296"}, {"1=1", "1=2"}} {
		_, err := parseSchedule(bad)
		require.Error(err, "%v", bad)
	}
}

func TestParseOrigin(t *testing.T) {
	require := require.New(t)

	origin, err := parseOrigin("")
	require.NoError(err)
	require.Equal(holders.RootOrigin(), origin)

	addr := common.HexToAddress("0xad")
	origin, err = parseOrigin(addr.Hex())
	require.NoError(err)
	require.Equal(holders.SignedOrigin(addr), origin)

	_, err = parseOrigin("alice")
	require.ErrorIs(err, errBadSigner)
}
