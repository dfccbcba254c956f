package pinned_test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/gopin/pkg/fiber"
	"github.com/vnykmshr/gopin/pkg/scheduling/pinned"
)

// Example demonstrates a pool of two pinned workers running fibers spawned
// from the driver thread.
func Example() {
	rt := fiber.New()
	domain := pinned.NewDomain(3) // 2 workers + driver

	for i := 0; i < 2; i++ {
		go func(i int) {
			w := rt.Adopt(pinned.New(domain), fiber.WithIndex(i))
			w.Run()
		}(i)
	}

	driver := rt.Adopt(pinned.NewDriver(domain))

	var completed int64
	for i := 0; i < 4; i++ {
		driver.Spawn(func(f *fiber.F) {
			f.Sleep(time.Millisecond)
			atomic.AddInt64(&completed, 1)
		})
	}

	rt.Wait()
	rt.Shutdown()

	fmt.Printf("completed %d fibers\n", atomic.LoadInt64(&completed))
	// Output:
	// completed 4 fibers
}
