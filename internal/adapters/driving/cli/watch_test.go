package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchCmd_Unconfigured(t *testing.T) {
	saved := syncOrchestrator
	defer func() { syncOrchestrator = saved }()
	syncOrchestrator = nil

	rootCmd.SetArgs([]string{"watch"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "sync service not configured")
}

func TestWatchCmd_IntervalFlag(t *testing.T) {
	flag := watchCmd.Flags().Lookup("interval")
	assert.NotNil(t, flag)
	assert.Equal(t, "5m0s", flag.DefValue)
}
