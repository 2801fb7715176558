package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/plugin-packager/internal/config"
	"github.com/oshokin/plugin-packager/internal/domain/packaging"
	"github.com/oshokin/plugin-packager/internal/service/archiver"
)

// project is a plugin layout inside a temporary directory.
type project struct {
	// target points every path into the temporary directory.
	target config.Target
}

func newProject(t *testing.T, root, name string) *project {
	t.Helper()

	directory := filepath.Join(root, name, "out")
	require.NoError(t, os.MkdirAll(directory, 0o755))

	return &project{
		target: config.Target{
			Name:           name,
			SourceManifest: filepath.Join(root, name, name+".json"),
			TargetManifest: filepath.Join(directory, name+".json"),
			Directory:      directory,
		},
	}
}

func (p *project) write(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func writeConfig(t *testing.T, dir string, targets ...config.Target) string {
	t.Helper()

	data, err := yaml.Marshal(&config.Config{Targets: targets})
	require.NoError(t, err)

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, data, config.DefaultFilePermissions))

	return path
}

// TestRun_EndToEnd merges the links and archives the manifest plus one asset.
func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newProject(t, dir, "Plugin")

	p.write(t, p.target.SourceManifest, `{"DownloadLinkInstall":"http://a/x","DownloadLinkTesting":null}`)
	p.write(t, p.target.TargetManifest, `{"Name":"Plugin"}`)
	p.write(t, filepath.Join(p.target.Directory, "Plugin.dll"), "binary")

	results, err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, dir, p.target),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	manifest, err := os.ReadFile(p.target.TargetManifest)
	require.NoError(t, err)
	require.JSONEq(t, `[{"Name":"Plugin","DownloadLinkInstall":"http://a/x"}]`, string(manifest))

	artifact := results[0].Artifact
	require.NotNil(t, artifact)
	require.Equal(t, filepath.Join(p.target.Directory, "Plugin.zip"), artifact.Path)

	entries, err := archiver.Inspect(context.Background(), artifact.Path)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Plugin.json", "Plugin.dll"}, entries)
}

// TestRun_MergeFailureSkipsArchive never archives when the merge failed.
func TestRun_MergeFailureSkipsArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newProject(t, dir, "Plugin")

	p.write(t, p.target.TargetManifest, `{"Name":"Plugin"}`)

	_, err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, dir, p.target),
	})
	require.ErrorIs(t, err, packaging.ErrNotFound)
	require.Contains(t, err.Error(), "target Plugin")

	_, err = os.Stat(filepath.Join(p.target.Directory, "Plugin.zip"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_StopsAtFirstFailure keeps results of the targets that finished.
func TestRun_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := newProject(t, dir, "First")
	second := newProject(t, dir, "Second")
	third := newProject(t, dir, "Third")

	first.write(t, first.target.SourceManifest, `{"DownloadLinkUpdate":"u"}`)
	first.write(t, first.target.TargetManifest, `{"Name":"First"}`)
	second.write(t, second.target.SourceManifest, `{}`)
	second.write(t, second.target.TargetManifest, `"broken shape"`)
	third.write(t, third.target.SourceManifest, `{}`)
	third.write(t, third.target.TargetManifest, `{}`)

	results, err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, dir, first.target, second.target, third.target),
	})
	require.ErrorIs(t, err, packaging.ErrUnexpectedFormat)
	require.Len(t, results, 1)
	require.Equal(t, "First", results[0].Target.Name)

	// Third target never ran.
	contents, err := os.ReadFile(third.target.TargetManifest)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(contents))
}

// TestRun_SelectTargets runs only the requested target.
func TestRun_SelectTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	skipped := newProject(t, dir, "Skipped")
	picked := newProject(t, dir, "Picked")

	picked.write(t, picked.target.SourceManifest, `{"DownloadLinkInstall":"i"}`)
	picked.write(t, picked.target.TargetManifest, `{"Name":"Picked"}`)

	configPath := writeConfig(t, dir, skipped.target, picked.target)

	results, err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		Targets:    []string{"Picked"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Picked", results[0].Target.Name)

	_, err = Run(context.Background(), &Options{
		ConfigPath: configPath,
		Targets:    []string{"Missing"},
	})
	require.ErrorIs(t, err, config.ErrUnknownTarget)
}

// TestRun_DryRun writes neither the manifest nor the archive.
func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newProject(t, dir, "Plugin")

	p.write(t, p.target.SourceManifest, `{"DownloadLinkInstall":"http://a/x"}`)
	p.write(t, p.target.TargetManifest, `{"Name":"Plugin"}`)

	results, err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, dir, p.target),
		DryRun:     true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Nil(t, results[0].Artifact)
	require.False(t, results[0].Merge.Written)

	contents, err := os.ReadFile(p.target.TargetManifest)
	require.NoError(t, err)
	require.Equal(t, `{"Name":"Plugin"}`, string(contents))

	_, err = os.Stat(filepath.Join(p.target.Directory, "Plugin.zip"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_InvalidOptions rejects bad log levels and missing configuration files.
func TestRun_InvalidOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newProject(t, dir, "Plugin")

	_, err := Run(context.Background(), &Options{
		ConfigPath: writeConfig(t, dir, p.target),
		LogLevel:   "chatty",
	})
	require.Error(t, err)

	_, err = Run(context.Background(), &Options{
		ConfigPath: filepath.Join(dir, "missing.yaml"),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}
