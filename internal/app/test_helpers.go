package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/xpigraph/internal/hcl"
	"github.com/specialistvlad/xpigraph/internal/registry"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a debug-logging App over the HCL loader. It returns
// the app, the buffer the graph is written to and the log buffer.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *bytes.Buffer, *SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logBuffer := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("XPIGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	testApp, err := NewApp(out, logBuffer, appConfig, hcl.NewLoader(), modules...)
	require.NoError(t, err)
	return testApp, out, logBuffer
}
