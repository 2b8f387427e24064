package actions

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

func newTestWorld(t *testing.T) *game.World {
	t.Helper()
	dir := t.TempDir()
	store, err := game.NewStore(filepath.Join(dir, "saves"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	accounts, err := game.NewAccountManager(filepath.Join(dir, "accounts.json"))
	if err != nil {
		t.Fatalf("NewAccountManager returned error: %v", err)
	}
	world, err := game.NewWorld(game.DefaultConfig(), store, accounts)
	if err != nil {
		t.Fatalf("NewWorld returned error: %v", err)
	}
	return world
}

func newTestSession(w *game.World) *game.Session {
	cfg := w.Config()
	return game.NewSession("test", &cfg, time.Now())
}

func call(t *testing.T, w *game.World, s *game.Session, action, params string) game.Response {
	t.Helper()
	req := game.Request{Action: action}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return Dispatch(w, s, req)
}

func TestDispatchUnknownAction(t *testing.T) {
	w := newTestWorld(t)
	s := newTestSession(w)
	resp := call(t, w, s, "teleport", "")
	if resp.Success || resp.Error != string(game.RejectInvalidRequest) {
		t.Fatalf("unknown action response = %+v, want INVALID_REQUEST", resp)
	}
	if resp := call(t, w, s, "", ""); resp.Success {
		t.Fatalf("empty action dispatched")
	}
}

func TestDispatchGatesByState(t *testing.T) {
	w := newTestWorld(t)
	s := newTestSession(w)

	resp := call(t, w, s, "list_characters", "")
	if resp.Error != string(game.RejectNotReady) {
		t.Fatalf("account action before login = %+v, want SESSION_NOT_READY", resp)
	}
	resp = call(t, w, s, "status", "")
	if resp.Error != string(game.RejectNotReady) {
		t.Fatalf("character action before selection = %+v, want SESSION_NOT_READY", resp)
	}
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	w := newTestWorld(t)
	s := newTestSession(w)
	resp := call(t, w, s, "  CHECK_ACCOUNT  ", `{"account": "nobody"}`)
	if !resp.Success {
		t.Fatalf("mixed-case action failed: %+v", resp)
	}
	if exists, _ := resp.Data["exists"].(bool); exists {
		t.Fatalf("unregistered account reported as existing")
	}
}

func TestFullSessionFlow(t *testing.T) {
	w := newTestWorld(t)
	s := newTestSession(w)

	resp := call(t, w, s, "create_account", `{"account": "pilot", "password": "secret1"}`)
	if !resp.Success {
		t.Fatalf("create_account failed: %+v", resp)
	}
	resp = call(t, w, s, "create_character", `{"name": "Vega"}`)
	if !resp.Success {
		t.Fatalf("create_character failed: %+v", resp)
	}
	resp = call(t, w, s, "select_character", `{"name": "Vega"}`)
	if !resp.Success {
		t.Fatalf("select_character failed: %+v", resp)
	}

	resp = call(t, w, s, "status", "")
	if !resp.Success {
		t.Fatalf("status failed: %+v", resp)
	}
	if resp.Data["name"] != "Vega" {
		t.Fatalf("status name = %v, want Vega", resp.Data["name"])
	}

	resp = call(t, w, s, "market", "")
	if !resp.Success {
		t.Fatalf("market failed: %+v", resp)
	}
	resp = call(t, w, s, "buy", `{"good": "Hydro Rations", "quantity": 2}`)
	if !resp.Success {
		t.Fatalf("buy failed: %+v", resp)
	}

	resp = call(t, w, s, "logout", "")
	if !resp.Success {
		t.Fatalf("logout failed: %+v", resp)
	}
	resp = call(t, w, s, "status", "")
	if resp.Error != string(game.RejectNotReady) {
		t.Fatalf("status after logout = %+v, want SESSION_NOT_READY", resp)
	}
}

func TestSelectCharacterRejectsForeignCommander(t *testing.T) {
	w := newTestWorld(t)

	owner := newTestSession(w)
	if resp := call(t, w, owner, "create_account", `{"account": "first", "password": "secret1"}`); !resp.Success {
		t.Fatalf("create_account failed: %+v", resp)
	}
	if resp := call(t, w, owner, "create_character", `{"name": "Vega"}`); !resp.Success {
		t.Fatalf("create_character failed: %+v", resp)
	}

	thief := newTestSession(w)
	if resp := call(t, w, thief, "create_account", `{"account": "second", "password": "secret1"}`); !resp.Success {
		t.Fatalf("create_account failed: %+v", resp)
	}
	resp := call(t, w, thief, "select_character", `{"name": "Vega"}`)
	if resp.Error != string(game.RejectNotOwner) {
		t.Fatalf("foreign select = %+v, want NOT_OWNER", resp)
	}
}

func TestHelpListsEveryAction(t *testing.T) {
	w := newTestWorld(t)
	s := newTestSession(w)

	resp := call(t, w, s, "help", "")
	if !resp.Success {
		t.Fatalf("help failed: %+v", resp)
	}
	listed, ok := resp.Data["actions"].([]map[string]any)
	if !ok {
		t.Fatalf("help actions payload has type %T", resp.Data["actions"])
	}
	if len(listed) != len(All()) {
		t.Fatalf("help lists %d actions, registry has %d", len(listed), len(All()))
	}
	names := make(map[string]bool, len(listed))
	for _, entry := range listed {
		name, _ := entry["action"].(string)
		names[name] = true
	}
	for _, required := range []string{"login", "warp", "engage", "send_mail", "winners"} {
		if !names[required] {
			t.Fatalf("help is missing %q", required)
		}
	}
}

func TestRegistryMetadataConsistent(t *testing.T) {
	for _, act := range All() {
		if act.RequiresCharacter && !act.RequiresAccount {
			t.Fatalf("%s requires a character without requiring an account", act.Name)
		}
		if act.Description == "" {
			t.Fatalf("%s has no description", act.Name)
		}
	}
}
