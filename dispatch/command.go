// File: dispatch/command.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/momentics/inkwire/api"
)

// CommandType is the cmd_type discriminant of a WebSocket message.
type CommandType string

const (
	CmdControl    CommandType = "control"
	CmdWifi       CommandType = "wifi"
	CmdWifiStatus CommandType = "wifistatus"
	CmdBinaryData CommandType = "binary_data_string"
	CmdError      CommandType = "error"
	CmdWebSocket  CommandType = "websocket"
)

// Command is one decoded WebSocket command.
type Command interface {
	Type() CommandType
}

// ControlCommand is acknowledged without side effects.
type ControlCommand struct{}

// WifiCommand stores station credentials and restarts the device.
// An empty password is valid for open networks, a missing one is not.
type WifiCommand struct {
	SSID     string  `json:"ssid" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// WifiStatusCommand asks for the station address.
type WifiStatusCommand struct{}

// BinaryDataCommand carries a base64 1-bpp image in Data.
type BinaryDataCommand struct {
	Data string `json:"data"`
}

func (ControlCommand) Type() CommandType    { return CmdControl }
func (WifiCommand) Type() CommandType       { return CmdWifi }
func (WifiStatusCommand) Type() CommandType { return CmdWifiStatus }
func (BinaryDataCommand) Type() CommandType { return CmdBinaryData }

type envelope struct {
	CmdType *string `json:"cmd_type"`
}

var validate = validator.New()

// DecodeCommand decodes one JSON command. Every failure wraps api.ErrCommandDecode.
func DecodeCommand(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError("invalid JSON", err)
	}
	if env.CmdType == nil {
		return nil, decodeError("missing cmd_type", nil)
	}

	var cmd Command
	switch CommandType(*env.CmdType) {
	case CmdControl:
		cmd = ControlCommand{}
	case CmdWifiStatus:
		cmd = WifiStatusCommand{}
	case CmdWifi:
		var w WifiCommand
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, decodeError("wifi", err)
		}
		if err := validate.Struct(w); err != nil {
			return nil, decodeError("wifi", fieldError(err))
		}
		cmd = w
	case CmdBinaryData:
		var b BinaryDataCommand
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, decodeError("binary_data_string", err)
		}
		cmd = b
	default:
		return nil, decodeError(fmt.Sprintf("unknown cmd_type %q", *env.CmdType), nil)
	}
	return cmd, nil
}

func decodeError(msg string, cause error) error {
	if cause == nil {
		return api.NewError(api.ErrCodeCommandDecode, msg)
	}
	return api.WrapError(api.ErrCodeCommandDecode, cause, msg)
}

// fieldError names the first missing field the way a client sent it.
func fieldError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	return fmt.Errorf("missing field %q", strings.ToLower(verrs[0].Field()))
}
