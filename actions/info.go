package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Status = Define(Definition{
	Name:              "status",
	Description:       "full report on the selected commander",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	report, err := ctx.World.CommanderReport(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", report)
})

var Help = Define(Definition{
	Name:        "help",
	Description: "list available actions",
}, func(ctx *Context) game.Response {
	list := make([]map[string]any, 0, 32)
	for _, act := range All() {
		list = append(list, map[string]any{
			"action":             act.Name,
			"description":        act.Description,
			"requires_character": act.RequiresCharacter,
		})
	}
	return game.OK("", map[string]any{"actions": list})
})
