package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("LEDGERLY_TEST_MODE") == "" {
			_ = os.Setenv("LEDGERLY_TEST_MODE", "1")
		}
	})
}
