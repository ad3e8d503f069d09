// Package utils provides small shared helpers for service wiring.
package utils //nolint:revive // var-naming: utils is an acceptable package name for shared utilities

import "sync"

// MergeErrorChans fans multiple error channels into one. The server uses it
// to watch all of its listeners through a single range loop; the merged
// channel closes once every input channel has closed.
func MergeErrorChans(channels ...chan error) chan error {
	merged := make(chan error)

	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func(c chan error) {
			defer wg.Done()
			for err := range c {
				merged <- err
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	return merged
}
