// Package guard flips binaries into test mode when imported from tests, so
// running main() in a test never dials Postgres or Redis.
package guard

import (
	"os"
	"sync"
)

// EnvVar is the switch read by app.InTestMode.
const EnvVar = "BIZDESK_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(EnvVar) == "" {
			_ = os.Setenv(EnvVar, "1")
		}
	})
}
