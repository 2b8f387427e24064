package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFailExposesRejectionCodes(t *testing.T) {
	resp := Fail(reject(RejectInvalidTarget, "no such planet %q", "Nowhere"))
	if resp.Success {
		t.Fatalf("rejection produced a success response")
	}
	if resp.Error != string(RejectInvalidTarget) {
		t.Fatalf("error code = %q, want INVALID_TARGET", resp.Error)
	}
	if resp.Message != `no such planet "Nowhere"` {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestFailHidesInternalDetail(t *testing.T) {
	resp := Fail(errors.New("dial tcp 10.0.0.1: connection refused"))
	if resp.Error != string(RejectInternal) {
		t.Fatalf("error code = %q, want INTERNAL_ERROR", resp.Error)
	}
	if resp.Message != "" {
		t.Fatalf("internal detail leaked to the client: %q", resp.Message)
	}
}

func TestDecodeParams(t *testing.T) {
	var dst struct {
		Target string `json:"target"`
	}
	if err := DecodeParams(json.RawMessage(`{"target": "Kestrel"}`), &dst); err != nil {
		t.Fatalf("DecodeParams returned error: %v", err)
	}
	if dst.Target != "Kestrel" {
		t.Fatalf("target = %q, want Kestrel", dst.Target)
	}

	if err := DecodeParams(nil, &dst); err != nil {
		t.Fatalf("empty params returned error: %v", err)
	}

	err := DecodeParams(json.RawMessage(`{broken`), &dst)
	if RejectionCode(err) != RejectInvalidRequest {
		t.Fatalf("malformed params error = %v, want INVALID_REQUEST", err)
	}
}

func TestOKCarriesData(t *testing.T) {
	resp := OK("docked", map[string]any{"planet": "Kestrel"})
	if !resp.Success || resp.Message != "docked" || resp.Data["planet"] != "Kestrel" {
		t.Fatalf("OK response = %+v", resp)
	}
}
