package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgererrors "github.com/mezonai/utxochain/errors"
)

// newWorkspace writes a leveldb store config and a log config into a temp dir
func newWorkspace(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()

	storeCfg := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(storeCfg, []byte(fmt.Sprintf("store:\n  type: leveldb\n  directory: %s\n", filepath.Join(dir, "data"))), 0o644))

	nodeCfg := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(nodeCfg, []byte(fmt.Sprintf("[log]\nfile = %s\n\n[mining]\nprogress_interval = 0\n", filepath.Join(dir, "node.log"))), 0o644))

	return []string{"--config", storeCfg, "--node-config", nodeCfg}
}

func run(t *testing.T, flags []string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(append([]string{}, args...), flags...))
	sendConfig = SendConfig{}
	printChainConfig = PrintChainConfig{}
	err := rootCmd.Execute()
	return out.String(), err
}

var addressPattern = regexp.MustCompile(`Your new address: (\S+)`)

func createWallet(t *testing.T, flags []string) string {
	t.Helper()
	out, err := run(t, flags, "createwallet")
	require.NoError(t, err)
	m := addressPattern.FindStringSubmatch(out)
	require.Len(t, m, 2)
	return m[1]
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw     string
		want    int32
		wantErr bool
	}{
		{"40", 40, false},
		{"1_000", 1000, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"2_147_483_647", 2147483647, false},
		{"2147483648", 0, true},
		{"9223372036854775808", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseAmount(tc.raw)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ledgererrors.ErrInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCLITransferFlow(t *testing.T) {
	flags := newWorkspace(t)

	alice := createWallet(t, flags)
	bob := createWallet(t, flags)

	out, err := run(t, flags, "listaddresses")
	require.NoError(t, err)
	assert.Contains(t, out, alice)
	assert.Contains(t, out, bob)

	_, err = run(t, flags, "getbalance", alice)
	assert.True(t, errors.Is(err, ledgererrors.ErrNoLedgerFound))

	out, err = run(t, flags, "create", alice)
	require.NoError(t, err)
	assert.Contains(t, out, "Created chain")

	_, err = run(t, flags, "create", alice)
	assert.True(t, errors.Is(err, ledgererrors.ErrLedgerAlreadyExists))

	out, err = run(t, flags, "send", alice, bob, "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Success!")

	out, err = run(t, flags, "getbalance", alice)
	require.NoError(t, err)
	assert.Contains(t, out, ": 60")

	out, err = run(t, flags, "getbalance", bob)
	require.NoError(t, err)
	assert.Contains(t, out, ": 40")

	_, err = run(t, flags, "send", bob, alice, "1_000")
	assert.True(t, errors.Is(err, ledgererrors.ErrInsufficientFunds))

	_, err = run(t, flags, "send", "--mine", bob, alice, "10")
	require.NoError(t, err)
	out, err = run(t, flags, "getbalance", bob)
	require.NoError(t, err)
	assert.Contains(t, out, ": 130")

	out, err = run(t, flags, "reindexutxo")
	require.NoError(t, err)
	assert.Contains(t, out, "There are 3 transactions")

	out, err = run(t, flags, "printchain")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "============ Block"))
	assert.Contains(t, out, "Height: 0")

	out, err = run(t, flags, "printchain", "--json")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n  \"prev_block_hash\": "))
	assert.Contains(t, out, "\"prev_block_hash\": \"\"")
	assert.NotContains(t, out, "============ Block")
}

func TestCLIRejectsUnknownSender(t *testing.T) {
	flags := newWorkspace(t)
	alice := createWallet(t, flags)

	_, err := run(t, flags, "create", alice)
	require.NoError(t, err)

	_, err = run(t, flags, "getbalance", "garbage")
	assert.True(t, errors.Is(err, ledgererrors.ErrCorruptAddress))

	_, err = run(t, flags, "send", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", alice, "1")
	assert.True(t, errors.Is(err, ledgererrors.ErrWalletNotFound))
}
