// Author: momentics <momentics@gmail.com>

package server

import "runtime/debug"

// maintain compacts idle buffers and refreshes gauges. It runs on the loop
// between polls.
func (s *Server) maintain() {
	total := 0
	for _, c := range s.conns.snapshot() {
		c.compact(s.cfg.ReadBufferSize)
		total += len(c.buf)
	}
	s.metrics.SetBuffered(total)

	if s.probes != nil {
		if ev := s.log.Debug(); ev.Enabled() {
			ev.Interface("probes", s.probes.DumpState()).Int("buffered", total).Msg("maintenance")
		}
	}
	if s.cfg.ReclaimMemory {
		debug.FreeOSMemory()
	}
}
