package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Deposit = Define(Definition{
	Name:              "deposit",
	Description:       "move credits into the galactic bank",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	return executeBank(ctx, "deposit")
})

var Withdraw = Define(Definition{
	Name:              "withdraw",
	Description:       "move credits out of the galactic bank",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	return executeBank(ctx, "withdraw")
})

func executeBank(ctx *Context, direction string) game.Response {
	var p struct {
		Amount int `json:"amount"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.Bank(ctx.Commander, p.Amount, direction)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("bank updated", data)
}
