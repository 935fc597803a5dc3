// Author: momentics <momentics@gmail.com>

package dispatch

import (
	"strconv"

	"github.com/goccy/go-json"
)

// DetailSuccess is the return_detail of every successful command.
const DetailSuccess = "success"

// Reply is the JSON object sent back for each command.
type Reply struct {
	CmdType       CommandType `json:"cmd_type"`
	ReturnDetail  string      `json:"return_detail,omitempty"`
	StaIP         string      `json:"sta_ip,omitempty"`
	BytesReceived *int        `json:"bytes_received,omitempty"`
	ConnectStatus string      `json:"connect_status,omitempty"`
}

// ErrorReply reports err to the client.
func ErrorReply(err error) Reply {
	return Reply{CmdType: CmdError, ReturnDetail: err.Error()}
}

// GreetingReply announces a freshly upgraded connection.
func GreetingReply(connID uint64) Reply {
	return Reply{
		CmdType:       CmdWebSocket,
		ConnectStatus: "websocket connected, you are client #" + strconv.FormatUint(connID, 10),
	}
}

// Encode renders r as compact JSON.
func (r Reply) Encode() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"cmd_type":"error","return_detail":"reply encoding failed"}`
	}
	return string(b)
}
