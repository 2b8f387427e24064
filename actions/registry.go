package actions

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

// Definition describes a single action's metadata.
type Definition struct {
	Name        string
	Description string

	// RequiresAccount gates the action behind login; RequiresCharacter
	// additionally demands a selected commander.
	RequiresAccount   bool
	RequiresCharacter bool
}

// Handler executes an action and produces the response frame.
type Handler func(*Context) game.Response

// Action couples metadata with the executable handler.
type Action struct {
	Definition
	Handler Handler
}

// Context provides the runtime data available to an action handler.
type Context struct {
	World   *game.World
	Session *game.Session
	Request game.Request

	// Commander is the selected character name, filled in before
	// RequiresCharacter handlers run.
	Commander string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Action)
	ordered    []*Action
)

// Define registers a new action using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing action.
func Define(def Definition, handler Handler) *Action {
	if handler == nil {
		panic("actions: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("actions: action must have a name")
	}
	if def.RequiresCharacter {
		def.RequiresAccount = true
	}

	act := &Action{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(def.Name)
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("actions: duplicate registration for %q", def.Name))
	}
	registry[key] = act

	ordered = append(ordered, act)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return act
}

// All returns the registered actions sorted by name.
func All() []*Action {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Action, len(ordered))
	copy(out, ordered)
	return out
}

// Dispatch looks the requested action up, enforces its session
// requirements, and executes it.
func Dispatch(world *game.World, session *game.Session, req game.Request) game.Response {
	name := strings.ToLower(strings.TrimSpace(req.Action))
	if name == "" {
		return game.Fail(game.Reject(game.RejectInvalidRequest, "missing action"))
	}

	registryMu.RLock()
	act, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return game.Fail(game.Reject(game.RejectInvalidRequest, "unknown action %q", req.Action))
	}

	ctx := &Context{World: world, Session: session, Request: req}
	if act.RequiresCharacter {
		commander, err := session.RequireCommander()
		if err != nil {
			return game.Fail(err)
		}
		ctx.Commander = commander
	} else if act.RequiresAccount && session.Account() == "" {
		return game.Fail(game.Reject(game.RejectNotReady, "log in first"))
	}
	return act.Handler(ctx)
}

func (c *Context) params(dst any) error {
	return game.DecodeParams(c.Request.Params, dst)
}
