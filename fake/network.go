// Author: momentics <momentics@gmail.com>

package fake

import "sync"

// Credentials is one persisted WiFi credential pair.
type Credentials struct {
	SSID     string
	Password string
}

// Network is a fake api.Network.
type Network struct {
	mu       sync.Mutex
	addr     string
	creds    []Credentials
	restarts int

	PersistErr error
}

// NewNetwork reports addr as the station address.
func NewNetwork(addr string) *Network {
	return &Network{addr: addr}
}

func (n *Network) CurrentStationAddress() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addr
}

// SetAddress changes the reported station address.
func (n *Network) SetAddress(addr string) {
	n.mu.Lock()
	n.addr = addr
	n.mu.Unlock()
}

func (n *Network) PersistWifiCredentials(ssid, password string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.PersistErr != nil {
		return n.PersistErr
	}
	n.creds = append(n.creds, Credentials{SSID: ssid, Password: password})
	return nil
}

func (n *Network) RestartDevice() {
	n.mu.Lock()
	n.restarts++
	n.mu.Unlock()
}

// Persisted returns every stored credential pair.
func (n *Network) Persisted() []Credentials {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Credentials(nil), n.creds...)
}

// Restarts reports how many restarts were scheduled.
func (n *Network) Restarts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.restarts
}
