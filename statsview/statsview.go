//go:build statsview

package statsview

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is used when Start is given an empty address.
const DefaultAddress = "localhost:18066"

const (
	graphPath = "/debug/statsview"

	// Sample once a second and keep two minutes of history.
	sampleIntervalMs = 1000
	maxPoints        = 120
)

// Server is a running statistics server.
type Server struct {
	addr string
	mgr  *statsview.ViewManager
	done chan struct{}
}

// Start launches the statistics server on addr and writes its URL to out.
func Start(addr string, out io.Writer) *Server {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(
		viewer.WithAddr(addr),
		viewer.WithInterval(sampleIntervalMs),
		viewer.WithMaxPoints(maxPoints),
	)

	s := &Server{
		addr: addr,
		mgr:  statsview.New(),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("statsview: %v", err)
		}
	}()

	fmt.Fprintf(out, "runtime statistics at http://%s%s\n", addr, graphPath)
	return s
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Stop shuts the server down and waits for it to exit.
func (s *Server) Stop() {
	s.mgr.Stop()
	<-s.done
}

// Available reports whether this binary can serve statistics.
func Available() bool {
	return true
}
