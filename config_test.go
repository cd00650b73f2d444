package hyperhist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	err := os.WriteFile(path, []byte(body), 0o600)
	assert.NoError(t, err)

	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, constants.DefaultBinCount, cfg.BinCount)
	assert.Equal(t, constants.DefaultMaxBlocks, cfg.MaxBlocks)
	assert.Equal(t, constants.TokenizerComma, cfg.Tokenizer)
	assert.Equal(t, constants.FormatTable, cfg.Format)
	assert.True(t, cfg.StartingRange == nil)
	assert.True(t, cfg.EndingRange == nil)
	assert.Equal(t, 1, len(cfg.HistogramOptions()))
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "hyperhist.yaml", `
bins: 25
starting_range: -10
ending_range: 90
max_blocks: 40
tokenizer: whitespace
format: json
`)

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, 25, cfg.BinCount)
	assert.Equal(t, -10, *cfg.StartingRange)
	assert.Equal(t, 90, *cfg.EndingRange)
	assert.Equal(t, 40, cfg.MaxBlocks)
	assert.Equal(t, constants.TokenizerWhitespace, cfg.Tokenizer)
	assert.Equal(t, constants.FormatJSON, cfg.Format)
	assert.Equal(t, 3, len(cfg.HistogramOptions()))
}

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, "hyperhist.json", `{"bins": 4}`)

	cfg, err := LoadConfig(path, WithMaxBlocks(12), WithFormat(constants.FormatCBOR))
	assert.NoError(t, err)

	assert.Equal(t, 4, cfg.BinCount)
	assert.Equal(t, 12, cfg.MaxBlocks)
	assert.Equal(t, constants.TokenizerComma, cfg.Tokenizer)
	assert.Equal(t, constants.FormatCBOR, cfg.Format)
	assert.True(t, cfg.StartingRange == nil)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, err != nil)

	path := writeConfig(t, "bad.yaml", "bins: 0\n")

	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidBinCount))

	// a command-line value repairs an invalid file value
	cfg, err := LoadConfig(path, WithBinCount(3))
	assert.NoError(t, err)
	assert.Equal(t, 3, cfg.BinCount)
}
