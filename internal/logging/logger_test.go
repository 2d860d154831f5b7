package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("nonsense"))
}

func TestSetup_WritesToRotatedFile(t *testing.T) {
	defer func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}()

	name := filepath.Join(t.TempDir(), "server")
	Setup(LoggerSetupParams{LogFileName: name, LogLevel: "debug", LogFormatJSON: true})
	logrus.Debug("hello from test")

	data, err := os.ReadFile(name + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}
