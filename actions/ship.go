package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Shipyard = Define(Definition{
	Name:        "shipyard",
	Description: "list the hull catalog",
}, func(ctx *Context) game.Response {
	return game.OK("", map[string]any{"ships": game.ShipClasses()})
})

var BuyShip = Define(Definition{
	Name:              "buy_ship",
	Description:       "trade the current hull in for a new one",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Model string `json:"model"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.BuyShip(ctx.Commander, p.Model)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("ship purchased", data)
})

var Repair = Define(Definition{
	Name:              "repair",
	Description:       "restore hull integrity at a bank planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	data, err := ctx.World.Repair(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("repairs complete", data)
})

var Refuel = Define(Definition{
	Name:              "refuel",
	Description:       "fill the fuel tanks at the docked planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	data, err := ctx.World.Refuel(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("tanks full", data)
})

var Upgrade = Define(Definition{
	Name:              "upgrade",
	Description:       "buy cargo pods, shield points, or fighters",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Kind     string `json:"kind"`
		Quantity int    `json:"quantity"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.Upgrade(ctx.Commander, p.Kind, p.Quantity)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("upgrade installed", data)
})

var InstallModule = Define(Definition{
	Name:              "install_module",
	Description:       "fit a module into a free slot",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Module string `json:"module"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.InstallModule(ctx.Commander, p.Module)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("module installed", data)
})
