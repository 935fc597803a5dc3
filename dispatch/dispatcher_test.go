package dispatch_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/momentics/inkwire/api"
	"github.com/momentics/inkwire/dispatch"
	"github.com/momentics/inkwire/fake"
	"github.com/momentics/inkwire/httpmsg"
)

type fixture struct {
	display   *fake.Display
	network   *fake.Network
	resources *fake.Resources
	d         *dispatch.Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		display:   fake.NewDisplay(),
		network:   fake.NewNetwork("192.168.4.17"),
		resources: fake.NewResources([]byte("<html>ink</html>")),
	}
	f.d = dispatch.New(dispatch.Deps{Display: f.display, Network: f.network, Resources: f.resources})
	return f
}

func decodeReply(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("reply %q is not JSON: %v", s, err)
	}
	return m
}

func mustParse(t *testing.T, raw string) *httpmsg.Request {
	t.Helper()
	req, err := httpmsg.Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestHTTPRoutes(t *testing.T) {
	f := newFixture()
	cases := []struct {
		raw    string
		status int
		body   string
	}{
		{"GET / HTTP/1.1\r\nHost: a\r\n\r\n", 200, "<html>ink</html>"},
		{"GET /wifistatus?x=1 HTTP/1.1\r\nHost: a\r\n\r\n", 200, "192.168.4.17"},
		{"GET /missing HTTP/1.1\r\n\r\n", 404, "404 Not Found"},
		{"DELETE / HTTP/1.1\r\n\r\n", 405, "405 Method Not Allowed"},
	}
	for _, c := range cases {
		resp := f.d.HandleHTTP(mustParse(t, c.raw))
		if resp.Status != c.status || string(resp.Body) != c.body {
			t.Errorf("%q: got %d %q", strings.SplitN(c.raw, "\r\n", 2)[0], resp.Status, resp.Body)
		}
		if !strings.Contains(string(resp.Bytes()), "Access-Control-Allow-Origin: *\r\n") {
			t.Errorf("%q: missing CORS header", c.raw)
		}
	}
}

func TestHTTPIndexUnavailable(t *testing.T) {
	f := newFixture()
	f.d = dispatch.New(dispatch.Deps{Display: f.display, Network: f.network, Resources: fake.NewResources(nil)})
	resp := f.d.HandleHTTP(mustParse(t, "GET / HTTP/1.1\r\n\r\n"))
	if resp.Status != 500 {
		t.Errorf("status = %d", resp.Status)
	}
}

func TestHTTPPostRendersJob(t *testing.T) {
	f := newFixture()
	raw := "POST /display HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"text\":\"hello\"}"
	resp := f.d.HandleHTTP(mustParse(t, raw))
	if resp.Status != 200 {
		t.Fatalf("status = %d", resp.Status)
	}
	if got := strings.Join(f.display.Calls(), ","); got != "clear,render_job,show" {
		t.Errorf("calls = %s", got)
	}
	job, ok := f.display.Jobs()[0].(map[string]any)
	if !ok || job["text"] != "hello" {
		t.Errorf("job = %#v", f.display.Jobs()[0])
	}
}

func TestHTTPPostRenderFailure(t *testing.T) {
	f := newFixture()
	f.display.RenderErr = errors.New("panel busy")
	resp := f.d.HandleHTTP(mustParse(t, "POST / HTTP/1.1\r\n\r\nhi"))
	if resp.Status != 500 {
		t.Errorf("status = %d", resp.Status)
	}
	for _, c := range f.display.Calls() {
		if c == "show" {
			t.Error("show called after failed render")
		}
	}
}

func TestCommandControl(t *testing.T) {
	f := newFixture()
	got := f.d.HandleCommand(`{"cmd_type":"control"}`)
	if got != `{"cmd_type":"control","return_detail":"success"}` {
		t.Errorf("reply = %s", got)
	}
	if len(f.display.Calls()) != 0 || f.network.Restarts() != 0 {
		t.Error("control command changed state")
	}
}

func TestCommandWifiStatus(t *testing.T) {
	f := newFixture()
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"wifistatus"}`))
	if m["cmd_type"] != "wifistatus" || m["sta_ip"] != "192.168.4.17" {
		t.Errorf("reply = %v", m)
	}
}

func TestCommandWifi(t *testing.T) {
	f := newFixture()
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"wifi","ssid":"home","password":"secret"}`))
	if m["cmd_type"] != "wifi" || m["return_detail"] != "success" {
		t.Errorf("reply = %v", m)
	}
	creds := f.network.Persisted()
	if len(creds) != 1 || creds[0] != (fake.Credentials{SSID: "home", Password: "secret"}) {
		t.Errorf("persisted = %v", creds)
	}
	if f.network.Restarts() != 1 {
		t.Errorf("restarts = %d", f.network.Restarts())
	}
}

func TestCommandWifiOpenNetwork(t *testing.T) {
	f := newFixture()
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"wifi","ssid":"cafe","password":""}`))
	if m["return_detail"] != "success" {
		t.Errorf("reply = %v", m)
	}
}

func TestCommandWifiMissingField(t *testing.T) {
	f := newFixture()
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"wifi","ssid":"x"}`))
	if m["cmd_type"] != "error" || !strings.Contains(m["return_detail"].(string), "password") {
		t.Errorf("reply = %v", m)
	}
	if f.network.Restarts() != 0 {
		t.Error("restart scheduled for invalid command")
	}
}

func TestCommandWifiPersistFailure(t *testing.T) {
	f := newFixture()
	f.network.PersistErr = errors.New("flash full")
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"wifi","ssid":"a","password":"b"}`))
	if m["cmd_type"] != "error" || !strings.Contains(m["return_detail"].(string), "flash full") {
		t.Errorf("reply = %v", m)
	}
	if f.network.Restarts() != 0 {
		t.Error("restart scheduled after persist failure")
	}
}

func TestCommandBinaryData(t *testing.T) {
	f := newFixture()
	img := []byte{0xff, 0x00, 0xaa, 0x55, 0x01}
	enc := base64.StdEncoding.EncodeToString(img)
	cmd := `{"cmd_type":"binary_data_string","data":"` + enc[:4] + `\n` + enc[4:] + `"}`

	got := f.d.HandleCommand(cmd)
	if got != `{"cmd_type":"binary_data_string","return_detail":"success","bytes_received":5}` {
		t.Errorf("reply = %s", got)
	}
	saved, ok := f.resources.Image(dispatch.DefaultImageName)
	if !ok || string(saved) != string(img) {
		t.Errorf("saved = %v", saved)
	}
	if strings.Join(f.display.Calls(), ",") != "clear,render_file,show" {
		t.Errorf("calls = %v", f.display.Calls())
	}
}

func TestCommandBinaryDataInvalidBase64(t *testing.T) {
	f := newFixture()
	m := decodeReply(t, f.d.HandleCommand(`{"cmd_type":"binary_data_string","data":"!!!"}`))
	if m["cmd_type"] != "error" {
		t.Errorf("reply = %v", m)
	}
	if _, ok := f.resources.Image(dispatch.DefaultImageName); ok {
		t.Error("image saved despite decode failure")
	}
}

func TestCommandDecodeFailures(t *testing.T) {
	f := newFixture()
	for _, in := range []string{`not json`, `{}`, `[1,2]`, `{"cmd_type":"reboot"}`, `{"cmd_type":7}`} {
		m := decodeReply(t, f.d.HandleCommand(in))
		if m["cmd_type"] != "error" || m["return_detail"] == "" {
			t.Errorf("%s: reply = %v", in, m)
		}
	}
}

func TestDecodeCommandErrorClass(t *testing.T) {
	_, err := dispatch.DecodeCommand([]byte(`{"cmd_type":"nope"}`))
	if !errors.Is(err, api.ErrCommandDecode) {
		t.Errorf("err = %v", err)
	}
	cmd, err := dispatch.DecodeCommand([]byte(`{"cmd_type":"wifi","ssid":"s","password":"p"}`))
	if err != nil || cmd.Type() != dispatch.CmdWifi {
		t.Errorf("cmd = %#v err = %v", cmd, err)
	}
}

func TestGreet(t *testing.T) {
	f := newFixture()
	got := f.d.Greet(3)
	want := `{"cmd_type":"websocket","connect_status":"websocket connected, you are client #3"}`
	if got != want {
		t.Errorf("greeting = %s", got)
	}
}

func TestHTTPPostEmptyBodyUsesDefaultJob(t *testing.T) {
	for _, raw := range []string{
		"POST / HTTP/1.1\r\nContent-Length: 0\r\n\r\n",
		"POST / HTTP/1.1\r\nContent-Type: application/json\r\n\r\n",
	} {
		f := newFixture()
		resp := f.d.HandleHTTP(mustParse(t, raw))
		if resp.Status != 200 {
			t.Fatalf("status = %d", resp.Status)
		}
		jobs := f.display.Jobs()
		if len(jobs) != 1 || jobs[0] != nil {
			t.Errorf("%q: job = %#v, want nil", raw, jobs)
		}
	}
}

func TestDisplayUpdatesRunAsOneSequence(t *testing.T) {
	f := newFixture()
	f.d.HandleHTTP(mustParse(t, "POST / HTTP/1.1\r\n\r\nhi"))
	if n := f.display.Sequences(); n != 1 {
		t.Errorf("POST ran %d sequences", n)
	}
	payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	f.d.HandleCommand(`{"cmd_type":"binary_data_string","data":"` + payload + `"}`)
	if n := f.display.Sequences(); n != 2 {
		t.Errorf("after binary image: %d sequences", n)
	}
}
