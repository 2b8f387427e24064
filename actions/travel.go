package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Warp = Define(Definition{
	Name:              "warp",
	Description:       "travel to another planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Target string `json:"target"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.Warp(ctx.Commander, p.Target)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("warp complete", data)
})

var Map = Define(Definition{
	Name:              "map",
	Description:       "chart every known planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	return game.OK("", map[string]any{"planets": ctx.World.GalaxyMap()})
})
