package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Planet = Define(Definition{
	Name:              "planet",
	Description:       "inspect a planet (docked planet when no name given)",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Name string `json:"name"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	report, err := ctx.World.PlanetReport(ctx.Commander, p.Name)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", report)
})

var Claim = Define(Definition{
	Name:              "claim",
	Description:       "claim the docked planet when it has no owner",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	data, err := ctx.World.ClaimPlanet(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("planet claimed", data)
})

var PlanetDeposit = Define(Definition{
	Name:              "planet_deposit",
	Description:       "fund an owned planet's treasury",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Planet string `json:"planet"`
		Amount int    `json:"amount"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.PlanetDeposit(ctx.Commander, p.Planet, p.Amount)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("treasury funded", data)
})

var TransferDefense = Define(Definition{
	Name:              "transfer_defense",
	Description:       "move fighters and shields from ship to the docked owned planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Fighters int `json:"fighters"`
		Shields  int `json:"shields"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.TransferDefense(ctx.Commander, p.Fighters, p.Shields)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("defenses transferred", data)
})

var Bribe = Define(Definition{
	Name:              "bribe",
	Description:       "pay the docked planet's customs office for smuggling clearance",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	data, err := ctx.World.PayBribe(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("arrangement made", data)
})
