package promise

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// The process-wide priority scheduler and main loop run background
		// goroutines deliberately kept alive for the lifetime of the
		// process; they are not leaks.
		goleak.IgnoreTopFunction("github.com/lilyball/tomorrowland.(*priorityScheduler).worker"),
		goleak.IgnoreTopFunction("github.com/lilyball/tomorrowland.RunMainLoop"),
	)
}
