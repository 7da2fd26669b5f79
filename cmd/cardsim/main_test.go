package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardsim/internal/corpus"
	"cardsim/internal/domain"
)

func writeLibrary(t *testing.T, dir string) string {
	t.Helper()
	cards := []domain.Card{
		{Name: "Shock", Text: "Shock deals 2 damage to any target.", ManaCost: "{R}", Type: "Instant"},
		{Name: "Lightning Bolt", Text: "Lightning Bolt deals 3 damage to any target.", ManaCost: "{R}", Type: "Instant"},
		{Name: "Divination", Text: "Draw two cards.", ManaCost: "{2}{U}", Type: "Sorcery"},
		{Name: "Grizzly Bears", Subtypes: []string{"Bear"}, ManaCost: "{1}{G}", Type: "Creature"},
		{Name: "Opt", Text: "Scry 1. Draw a card.", ManaCost: "{U}", Type: "Instant"},
	}
	var buf bytes.Buffer
	require.NoError(t, corpus.Write(&buf, cards))
	path := filepath.Join(dir, "cards.json.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// run executes the root command with fresh flag values and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath, libraryPath, artifactsPath, logLevel = "", "", "", ""
	similarLimit, similarOffset, similarJSON = 0, 0, false
	buildTopics = 0

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	base := []string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"--library", filepath.Join(dir, "cards.json.gz"),
		"--artifacts", filepath.Join(dir, "cardsim.db"),
		"--log-level", "error",
	}
	rootCmd.SetArgs(append(base, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommands_Registered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "similar", "card", "serve", "tui"} {
		assert.True(t, names[want], want)
	}
}

func TestSimilarCmd_Flags(t *testing.T) {
	flag := similarCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	require.NotNil(t, similarCmd.Flags().Lookup("offset"))
	require.NotNil(t, similarCmd.Flags().Lookup("json"))
}

func TestSimilarCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := run(t, t.TempDir(), "similar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSimilarCmd_WithoutBuild(t *testing.T) {
	dir := t.TempDir()
	writeLibrary(t, dir)

	_, err := run(t, dir, "similar", "Shock")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactsMissing)
	assert.Contains(t, err.Error(), "cardsim build")
}

func TestBuildThenQuery(t *testing.T) {
	dir := t.TempDir()
	writeLibrary(t, dir)

	out, err := run(t, dir, "build", "--topics", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "5 cards")

	out, err = run(t, dir, "similar", "shock", "-n", "2", "--json")
	require.NoError(t, err)
	var matches []domain.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "Lightning Bolt", matches[0].Card.Name)

	out, err = run(t, dir, "similar", "Shock", "--offset", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[2]")
	assert.NotContains(t, out, "Lightning Bolt")
	assert.NotContains(t, out, "Grizzly Bears")

	out, err = run(t, dir, "similar", "Shock", "--offset", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "No similar cards found.")

	out, err = run(t, dir, "card", "grizzly-bears")
	require.NoError(t, err)
	assert.Contains(t, out, "Grizzly Bears")
	assert.Contains(t, out, "Bear")

	_, err = run(t, dir, "card", "Black Lotus")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilarCmd_StopwordsChangedSinceBuild(t *testing.T) {
	dir := t.TempDir()
	writeLibrary(t, dir)

	_, err := run(t, dir, "build", "--topics", "4")
	require.NoError(t, err)

	stop := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(stop, []byte("damage\n"), 0o644))
	cfgFile := filepath.Join(dir, "cardsim.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("normalizer:\n  stopwords_path: "+stop+"\n"), 0o644))

	_, err = run(t, dir, "--config", cfgFile, "similar", "Shock")
	assert.ErrorIs(t, err, domain.ErrCorpusInconsistency)
}

func TestBuild_MissingLibrary(t *testing.T) {
	_, err := run(t, t.TempDir(), "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open library")
}
