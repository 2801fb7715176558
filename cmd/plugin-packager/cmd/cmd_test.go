package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/plugin-packager/internal/config"
	"github.com/oshokin/plugin-packager/internal/service/archiver"
)

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

// TestInitCommand writes a configuration once and refuses to overwrite it without --force.
func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packager.yaml")

	_, err := execute(t, "init", "AceJobSwitcher", "FastJobSwitcher", "--config", path, "--configuration", "Release")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 2)
	require.Equal(t, "Release", cfg.Targets[0].Configuration)

	_, err = execute(t, "init", "Other", "--config", path)
	require.ErrorIs(t, err, errConfigExists)

	_, err = execute(t, "init", "Other", "--config", path, "--force")
	require.NoError(t, err)

	cfg, err = config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
	require.Equal(t, "Other", cfg.Targets[0].Name)

	force = false
}

// TestInspectCommand prints one entry per line.
func TestInspectCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Plugin.json"), []byte("[]"), 0o644))

	archivePath := filepath.Join(root, "Plugin.zip")
	_, err := archiver.Archive(context.Background(), root, archivePath)
	require.NoError(t, err)

	out, err := execute(t, "inspect", archivePath)
	require.NoError(t, err)
	require.Equal(t, []string{"Plugin.json"}, strings.Fields(out))

	_, err = execute(t, "inspect")
	require.Error(t, err)
}

// TestRootCommand_Config runs the pipeline from a configuration file.
func TestRootCommand_Config(t *testing.T) {
	dir := t.TempDir()
	directory := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(directory, 0o755))

	source := filepath.Join(dir, "Plugin.json")
	target := filepath.Join(directory, "Plugin.json")
	require.NoError(t, os.WriteFile(source, []byte(`{"DownloadLinkInstall":"http://a/x"}`), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`{"Name":"Plugin"}`), 0o644))

	cfg := &config.Config{Targets: []config.Target{{
		Name:           "Plugin",
		SourceManifest: source,
		TargetManifest: target,
		Directory:      directory,
	}}}
	configFile := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configFile, cfg))

	_, err := execute(t, "--config", configFile, "Plugin")
	require.NoError(t, err)

	entries, err := archiver.Inspect(context.Background(), filepath.Join(directory, "Plugin.zip"))
	require.NoError(t, err)
	require.Equal(t, []string{"Plugin.json"}, entries)

	_, err = execute(t, "--config", configFile, "Unknown")
	require.ErrorIs(t, err, config.ErrUnknownTarget)
}
