// Author: momentics <momentics@gmail.com>

package server

// registry maps descriptors to live connections. Loop goroutine only.
type registry struct {
	conns map[int]*Connection
}

func newRegistry() *registry {
	return &registry{conns: make(map[int]*Connection)}
}

func (r *registry) add(c *Connection) { r.conns[c.fd] = c }

func (r *registry) get(fd int) *Connection { return r.conns[fd] }

func (r *registry) remove(fd int) { delete(r.conns, fd) }

func (r *registry) len() int { return len(r.conns) }

// snapshot returns the live connections so callers may destroy while iterating.
func (r *registry) snapshot() []*Connection {
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
