package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Engage = Define(Definition{
	Name:              "engage",
	Description:       "attack a ship, planet, or pirate patrol",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		TargetKind string `json:"target_kind"`
		Target     string `json:"target"`
		Weapon     string `json:"weapon"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if p.Weapon == "" {
		p.Weapon = game.WeaponStandard
	}
	outcome, err := ctx.World.ResolveEngagement(ctx.Commander, p.TargetKind, p.Target, p.Weapon)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("engagement resolved", map[string]any{"outcome": outcome})
})
