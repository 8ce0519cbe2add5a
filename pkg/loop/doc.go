// Package loop provides the cooperative, single-threaded execution model the
// editors run on. Callbacks posted to a Loop run one at a time on whichever
// goroutine drives it (Run or RunUntilIdle). Blocking work started with Go runs
// on its own goroutine and hands its result back to the loop, so editor state
// is only ever touched from loop callbacks.
//
// Task is the single-completion handle for asynchronous work. Token lets a
// caller mark a pending result as stale before it is applied.
package loop
