package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFallsBackOnBadLevel(t *testing.T) {
	require.NoError(t, Init(&Config{Level: "loud", Format: "text", Output: "console"}))
	assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	require.NoError(t, Init(&Config{Level: "debug", Format: "json", Output: "file", FilePath: path}))
	t.Cleanup(func() { _ = Init(nil) })

	Infof("hello %s", "file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello file"`)
}

func TestGetLoggerLazyInit(t *testing.T) {
	mu.Lock()
	Logger = nil
	mu.Unlock()

	assert.NotNil(t, GetLogger())
}
