package startup

import (
	"os"
	"time"

	"github.com/wrapped/internal/logger"
)

const maxBackoff = 30 * time.Second

// retryUntil вызывает attempt, пока тот не вернёт nil, с удвоением паузы от 2s до 30s.
// После maxWait процесс завершается: без хранилища сервису нечего делать.
func retryUntil(maxWait time.Duration, logPrefix, what string, attempt func() error) {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		err := attempt()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			logger.Errorf("%s%s (gave up after %v): %v", logPrefix, what, maxWait, err)
			logger.Flush()
			os.Exit(1)
		}
		logger.Errorf("%s%s failed, retry in %v: %v", logPrefix, what, backoff, err)
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
