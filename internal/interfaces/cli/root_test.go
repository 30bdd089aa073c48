package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "metanet", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"formula", "closure", "balance", "compartment", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "log-level", "output", "verbose", "network", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestVersionCmd(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "metanet 1.2.3 "), out)

	out, err = run(t, "version", "-o", "json")
	require.NoError(t, err)
	var v versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.2.3", v.Version)
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	_, err := run(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRoot_RejectsMissingConfigFile(t *testing.T) {
	_, err := run(t, "version", "--config", "/nonexistent/metanet.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestRoot_UnknownSubcommand(t *testing.T) {
	_, err := run(t, "nonsense")
	assert.Error(t, err)
}

func TestGetCLIContext_Missing(t *testing.T) {
	_, err := GetCLIContext(NewRootCommand())
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"ID", "NAME"}, [][]string{{"20", "water formation"}, {"101"}})
	want := "ID   NAME\n" +
		"---  ---------------\n" +
		"20   water formation\n" +
		"101  \n"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
}
