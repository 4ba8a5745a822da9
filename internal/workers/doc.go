/*
Package workers sizes the pool of concurrent disk scans.

Scans are I/O-bound: they spend most of their time in directory reads and
stat calls, so the default allows two concurrent scans per available CPU.
GOMAXPROCS is used rather than runtime.NumCPU so container CPU limits are
respected.

	// Up to 2 scans per CPU, never more than 8
	n := workers.ForIO(8)

	// Explicit configuration wins when set
	n := workers.Resolve(cfg.ScanConcurrency, 8)

# Environment Variable Override

SCAN_CONCURRENCY pins the count regardless of CPU availability:

	env:
	- name: SCAN_CONCURRENCY
	  value: "2"

Non-numeric, zero and negative values are ignored.
*/
package workers
