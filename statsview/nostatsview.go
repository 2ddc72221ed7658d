//go:build !statsview

package statsview

import "io"

// DefaultAddress is used when Start is given an empty address.
const DefaultAddress = "localhost:18066"

// Server does nothing without the statsview build tag.
type Server struct {
	addr string
}

// Start returns an inert Server.
func Start(addr string, _ io.Writer) *Server {
	if addr == "" {
		addr = DefaultAddress
	}
	return &Server{addr: addr}
}

// Addr returns the address the server would listen on.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) Stop() {}

// Available reports whether this binary can serve statistics.
func Available() bool {
	return false
}
