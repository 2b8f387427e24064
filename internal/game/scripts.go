package game

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Planet event scripts are small Go fragments attached to a planet that
// run on arrival and after trades. A script defines any of:
//
//	func OnDock(ctx map[string]any)
//	func OnTrade(ctx map[string]any)
//
// The payload includes a say callback for hail lines back to the docking
// commander. Compiles are cached by source hash; a broken script logs once
// and stays inert.
type compiledScript struct {
	onDock  func(map[string]any)
	onTrade func(map[string]any)
}

type scriptEntry struct {
	script *compiledScript
	err    error
}

type scriptEngine struct {
	mu      sync.RWMutex
	scripts map[string]*scriptEntry
}

// NewScriptEngine builds an empty planet-script engine.
func NewScriptEngine() *scriptEngine {
	return &scriptEngine{scripts: make(map[string]*scriptEntry)}
}

// OnDock runs a planet's dock hook and returns the hail line it said, if
// any.
func (e *scriptEngine) OnDock(source string, payload map[string]any) string {
	if e == nil {
		return ""
	}
	script, err := e.scriptFor(source)
	if err != nil {
		log.WithError(err).Warn("planet script failed to load")
		return ""
	}
	if script == nil || script.onDock == nil {
		return ""
	}
	var said string
	payload["say"] = func(text string) {
		cleaned := strings.TrimSpace(text)
		if cleaned != "" {
			said = cleaned
		}
	}
	e.invoke("OnDock", func() {
		script.onDock(payload)
	})
	return said
}

// OnTrade runs a planet's trade hook.
func (e *scriptEngine) OnTrade(source string, payload map[string]any) {
	if e == nil {
		return
	}
	script, err := e.scriptFor(source)
	if err != nil {
		log.WithError(err).Warn("planet script failed to load")
		return
	}
	if script == nil || script.onTrade == nil {
		return
	}
	payload["say"] = func(string) {}
	e.invoke("OnTrade", func() {
		script.onTrade(payload)
	})
}

func (e *scriptEngine) invoke(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("hook", hook).WithField("panic", r).Warn("planet script panicked")
		}
	}()
	fn()
}

func (e *scriptEngine) scriptFor(source string) (*compiledScript, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	key := hashScript(trimmed)
	e.mu.RLock()
	entry, ok := e.scripts[key]
	e.mu.RUnlock()
	if ok {
		return entry.script, entry.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.scripts[key]; ok {
		return entry.script, entry.err
	}
	script, err := e.compile(trimmed)
	e.scripts[key] = &scriptEntry{script: script, err: err}
	return script, err
}

func (e *scriptEngine) compile(source string) (*compiledScript, error) {
	interpreter := interp.New(interp.Options{})
	interpreter.Use(stdlib.Symbols)
	if _, err := interpreter.Eval(source); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled := &compiledScript{}
	if value, err := interpreter.Eval("OnDock"); err == nil {
		fn, ok := value.Interface().(func(map[string]any))
		if !ok {
			return nil, fmt.Errorf("OnDock has unexpected type %T", value.Interface())
		}
		compiled.onDock = fn
	} else if !isUndefinedSymbol(err) {
		return nil, fmt.Errorf("OnDock: %w", err)
	}
	if value, err := interpreter.Eval("OnTrade"); err == nil {
		fn, ok := value.Interface().(func(map[string]any))
		if !ok {
			return nil, fmt.Errorf("OnTrade has unexpected type %T", value.Interface())
		}
		compiled.onTrade = fn
	} else if !isUndefinedSymbol(err) {
		return nil, fmt.Errorf("OnTrade: %w", err)
	}
	return compiled, nil
}

func hashScript(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

func isUndefinedSymbol(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "undefined") || strings.Contains(msg, "not declared")
}
