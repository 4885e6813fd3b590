// Package refresh keeps the contact list and the selected conversation
// up to date without ever blocking the caller.
//
// Each data set is a Stream with at most one fetch in flight. Fetches run
// in their own goroutines and are only ever observed through a
// non-blocking receive, so a Scheduler tick returns in bounded time no
// matter how slow the relay is. A finished fetch is replaced by its
// successor before its result is handed to the Renderer, which keeps
// every stream permanently warm.
package refresh
