// Package statsview serves live runtime graphs (heap, GC pauses,
// goroutines) for the debug viewer. The server only exists in binaries
// built with the statsview build tag; elsewhere Available reports false
// and Start returns an inert Server.
//
// With the default address the graphs are at
//
//	http://localhost:18066/debug/statsview
package statsview
