package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BACKOFFICE_TEST_MODE", "1")
		if os.Getenv("LEDGER_SOURCE") == "" {
			_ = os.Setenv("LEDGER_SOURCE", "simulated")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
