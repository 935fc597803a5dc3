// File: dispatch/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Calls into the collaborators run synchronously on the connection loop, so a
// slow render stalls every other connection until it returns.

package dispatch

import (
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/control"
	"github.com/momentics/inkwire/httpmsg"
	"github.com/momentics/inkwire/internal/logging"
)

const (
	// DefaultImageName is where binary_data_string images are stored.
	DefaultImageName = "byte_array.bin"

	displayUpdated = "display updated"
)

// Deps are the collaborators a Dispatcher drives.
type Deps struct {
	Display   api.Display
	Network   api.Network
	Resources api.Resources
	// ImageName defaults to DefaultImageName.
	ImageName string
	// Metrics may be nil.
	Metrics *control.Metrics
}

// Dispatcher routes HTTP requests and WebSocket commands.
type Dispatcher struct {
	display   api.Display
	network   api.Network
	resources api.Resources
	imageName string
	metrics   *control.Metrics
	log       zerolog.Logger
}

// New builds a dispatcher over deps.
func New(deps Deps) *Dispatcher {
	name := deps.ImageName
	if name == "" {
		name = DefaultImageName
	}
	return &Dispatcher{
		display:   deps.Display,
		network:   deps.Network,
		resources: deps.Resources,
		imageName: name,
		metrics:   deps.Metrics,
		log:       logging.With().Str("component", "dispatch").Logger(),
	}
}

// HandleHTTP answers one plain HTTP request.
func (d *Dispatcher) HandleHTTP(req *httpmsg.Request) *httpmsg.Response {
	resp := d.routeHTTP(req)
	d.metrics.HTTPServed(req.Method, resp.Status)
	return resp
}

func (d *Dispatcher) routeHTTP(req *httpmsg.Request) *httpmsg.Response {
	switch req.Method {
	case "GET":
		switch req.Path {
		case "/":
			page, err := d.resources.Page()
			if err != nil {
				d.log.Error().Err(err).Msg("index page unavailable")
				return httpmsg.InternalError()
			}
			return httpmsg.OK("text/html; charset=utf-8", page)
		case "/wifistatus":
			return httpmsg.Text(d.network.CurrentStationAddress())
		default:
			return httpmsg.NotFound()
		}
	case "POST":
		var job any
		if req.RawBody != "" {
			job = req.Body
		}
		if err := d.renderJob(job); err != nil {
			d.log.Error().Err(err).Str("path", req.Path).Msg("display job failed")
			return httpmsg.InternalError()
		}
		return httpmsg.Text(displayUpdated)
	default:
		return httpmsg.MethodNotAllowed()
	}
}

// renderJob draws job, or the display's default job when job is nil.
func (d *Dispatcher) renderJob(job any) error {
	return d.sequence(func() error {
		if err := d.display.Clear(); err != nil {
			return api.WrapError(api.ErrCodeCollaborator, err, "display clear")
		}
		if err := d.display.RenderFromJob(job); err != nil {
			return api.WrapError(api.ErrCodeCollaborator, err, "display render")
		}
		if err := d.display.Show(); err != nil {
			return api.WrapError(api.ErrCodeCollaborator, err, "display show")
		}
		return nil
	})
}

// sequence runs fn with exclusive use of the display when it is shared.
func (d *Dispatcher) sequence(fn func() error) error {
	if s, ok := d.display.(api.DisplaySequencer); ok {
		return s.Sequence(fn)
	}
	return fn()
}

// HandleCommand executes one text frame payload and returns the JSON reply.
func (d *Dispatcher) HandleCommand(text string) string {
	cmd, err := DecodeCommand([]byte(text))
	if err != nil {
		d.log.Warn().Err(err).Str("preview", logging.Preview([]byte(text))).Msg("command rejected")
		d.metrics.CommandHandled(string(CmdError), "error")
		return ErrorReply(err).Encode()
	}

	reply, err := d.execute(cmd)
	if err != nil {
		d.log.Error().Err(err).Str("cmd_type", string(cmd.Type())).Msg("command failed")
		d.metrics.CommandHandled(string(cmd.Type()), "error")
		return ErrorReply(err).Encode()
	}
	d.metrics.CommandHandled(string(cmd.Type()), "ok")
	return reply.Encode()
}

func (d *Dispatcher) execute(cmd Command) (Reply, error) {
	switch c := cmd.(type) {
	case ControlCommand:
		return Reply{CmdType: CmdControl, ReturnDetail: DetailSuccess}, nil

	case WifiStatusCommand:
		return Reply{CmdType: CmdWifiStatus, ReturnDetail: DetailSuccess, StaIP: d.network.CurrentStationAddress()}, nil

	case WifiCommand:
		if err := d.network.PersistWifiCredentials(c.SSID, *c.Password); err != nil {
			return Reply{}, api.WrapError(api.ErrCodeCollaborator, err, "persist wifi credentials")
		}
		d.log.Info().Str("ssid", c.SSID).Msg("wifi credentials stored, restart scheduled")
		d.network.RestartDevice()
		return Reply{CmdType: CmdWifi, ReturnDetail: DetailSuccess}, nil

	case BinaryDataCommand:
		data, err := decodeImage(c.Data)
		if err != nil {
			return Reply{}, err
		}
		if err := d.resources.SaveImage(d.imageName, data); err != nil {
			return Reply{}, api.WrapError(api.ErrCodeCollaborator, err, "save image")
		}
		err = d.sequence(func() error {
			if err := d.display.Clear(); err != nil {
				return api.WrapError(api.ErrCodeCollaborator, err, "display clear")
			}
			if err := d.display.RenderFromFile(d.imageName); err != nil {
				return api.WrapError(api.ErrCodeCollaborator, err, "display render")
			}
			if err := d.display.Show(); err != nil {
				return api.WrapError(api.ErrCodeCollaborator, err, "display show")
			}
			return nil
		})
		if err != nil {
			return Reply{}, err
		}
		n := len(data)
		return Reply{CmdType: CmdBinaryData, ReturnDetail: DetailSuccess, BytesReceived: &n}, nil
	}
	return Reply{}, api.NewError(api.ErrCodeCommandDecode, "unhandled command")
}

// decodeImage accepts standard base64 with embedded whitespace or line breaks.
func decodeImage(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeCommandDecode, err, "binary_data_string: invalid base64")
	}
	return data, nil
}

// Greet returns the text sent right after a connection upgrades.
func (d *Dispatcher) Greet(connID uint64) string {
	return GreetingReply(connID).Encode()
}
