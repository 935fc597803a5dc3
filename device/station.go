// Author: momentics <momentics@gmail.com>

package device

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/internal/logging"
)

// OfflineAddress is reported when the station has no IPv4 address.
const OfflineAddress = "0.0.0.0"

// WifiCredentials is the on-disk credential record.
type WifiCredentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// StationConfig configures a Station.
type StationConfig struct {
	// Interface names the station NIC; empty picks the first non-loopback IPv4.
	Interface       string
	CredentialsFile string
	RestartDelay    time.Duration
	// OnRestart runs once, RestartDelay after RestartDevice.
	OnRestart func()
}

// Station implements api.Network on the host's network stack.
type Station struct {
	iface     string
	credPath  string
	delay     time.Duration
	onRestart func()

	mu    sync.Mutex
	timer *time.Timer
	addrs func() ([]net.Addr, error)
}

// NewStation creates a station.
func NewStation(cfg StationConfig) *Station {
	s := &Station{
		iface:     cfg.Interface,
		credPath:  cfg.CredentialsFile,
		delay:     cfg.RestartDelay,
		onRestart: cfg.OnRestart,
	}
	s.addrs = s.interfaceAddrs
	return s
}

func (s *Station) interfaceAddrs() ([]net.Addr, error) {
	if s.iface == "" {
		return net.InterfaceAddrs()
	}
	ifc, err := net.InterfaceByName(s.iface)
	if err != nil {
		return nil, err
	}
	return ifc.Addrs()
}

// CurrentStationAddress returns the first non-loopback IPv4 address.
func (s *Station) CurrentStationAddress() string {
	addrs, err := s.addrs()
	if err != nil {
		logging.Debug().Err(err).Str("interface", s.iface).Msg("station address lookup failed")
		return OfflineAddress
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return OfflineAddress
}

// PersistWifiCredentials writes the credentials file atomically.
func (s *Station) PersistWifiCredentials(ssid, password string) error {
	data, err := json.Marshal(WifiCredentials{SSID: ssid, Password: password})
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.credPath, data, 0o600); err != nil {
		return fmt.Errorf("persist wifi credentials: %w", err)
	}
	return nil
}

// LoadWifiCredentials reads the credentials file.
func (s *Station) LoadWifiCredentials() (WifiCredentials, error) {
	var c WifiCredentials
	data, err := os.ReadFile(s.credPath)
	if err != nil {
		return c, api.WrapError(api.ErrCodeResourceUnavailable, err, "wifi credentials")
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, api.WrapError(api.ErrCodeResourceUnavailable, err, "wifi credentials")
	}
	return c, nil
}

// RestartDevice schedules OnRestart after the restart delay. Only the first
// call schedules anything.
func (s *Station) RestartDevice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil || s.onRestart == nil {
		return
	}
	logging.Warn().Dur("delay", s.delay).Msg("device restart scheduled")
	s.timer = time.AfterFunc(s.delay, s.onRestart)
}

// RestartPending reports whether a restart has been scheduled.
func (s *Station) RestartPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels a pending restart that has not fired yet.
func (s *Station) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}
