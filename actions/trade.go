package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Market = Define(Definition{
	Name:              "market",
	Description:       "show the docked planet's market",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	report, err := ctx.World.PlanetReport(ctx.Commander, "")
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", report)
})

var Quote = Define(Definition{
	Name:              "quote",
	Description:       "price one good at a planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Planet string `json:"planet"`
		Good   string `json:"good"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	price, err := ctx.World.Quote(p.Planet, p.Good)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", map[string]any{
		"planet": p.Planet,
		"good":   p.Good,
		"price":  price,
	})
})

var Buy = Define(Definition{
	Name:              "buy",
	Description:       "buy goods at the docked planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	return executeTrade(ctx, "buy")
})

var Sell = Define(Definition{
	Name:              "sell",
	Description:       "sell cargo at the docked planet",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	return executeTrade(ctx, "sell")
})

func executeTrade(ctx *Context, direction string) game.Response {
	var p struct {
		Good     string `json:"good"`
		Quantity int    `json:"quantity"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	receipt, err := ctx.World.Trade(ctx.Commander, p.Good, p.Quantity, direction)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("trade complete", map[string]any{"receipt": receipt})
}

var Goods = Define(Definition{
	Name:        "goods",
	Description: "list the full trade good catalog",
}, func(ctx *Context) game.Response {
	return game.OK("", map[string]any{"goods": game.Goods()})
})
