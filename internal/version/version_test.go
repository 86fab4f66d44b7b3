package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	assert.Equal(t, Version, Info())
}

func TestFull(t *testing.T) {
	orig := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = orig[0], orig[1], orig[2] })

	Version, Commit, BuildDate = "1.2.0", "abc1234", "2026-10-01"
	assert.Equal(t, "1.2.0 (commit: abc1234, built: 2026-10-01)", Full())
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, "shopctl/"+Version+" "))
	assert.Contains(t, ua, runtime.GOOS)
}
