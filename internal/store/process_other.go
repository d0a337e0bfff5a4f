//go:build !unix && !windows

package store

// Without a way to probe other processes every recorded holder counts as
// live, so a stale claim has to be removed by hand.
func processAlive(pid int) bool {
	return pid > 0
}
