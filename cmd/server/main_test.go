package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsStartupErrors(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "bogus")
	t.Setenv("LOG_LEVEL", "error")
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database driver "bogus"`)
}
