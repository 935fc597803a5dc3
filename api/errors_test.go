package api_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/momentics/inkwire/api"
)

func TestErrorMatchesItsClassOnly(t *testing.T) {
	err := api.WrapError(api.ErrCodeCollaborator, io.ErrUnexpectedEOF, "display show")
	if !errors.Is(err, api.ErrCollaborator) {
		t.Error("collaborator error does not match its class")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause lost")
	}
	if errors.Is(err, api.ErrCommandDecode) {
		t.Error("matched a foreign class")
	}
}

func TestErrorMessage(t *testing.T) {
	err := api.NewError(api.ErrCodeMalformedRequest, "invalid request line").WithContext("line", "GET")
	if msg := err.Error(); !strings.HasPrefix(msg, "invalid request line (context:") {
		t.Errorf("message = %q", msg)
	}
	wrapped := api.WrapError(api.ErrCodeConnectionIO, errors.New("reset"), "read")
	if wrapped.Error() != "read: reset" {
		t.Errorf("message = %q", wrapped.Error())
	}
}

func TestSentinelCoverage(t *testing.T) {
	for code := api.ErrCodeMalformedRequest; code < api.ErrCodeInternal; code++ {
		if code.Sentinel() == nil {
			t.Errorf("code %d has no failure class", code)
		}
	}
	if api.ErrCodeOK.Sentinel() != nil || api.ErrCodeInternal.Sentinel() != nil {
		t.Error("unexpected class for OK/internal")
	}
}
