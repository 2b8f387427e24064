package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Winners = Define(Definition{
	Name:        "winners",
	Description: "show the reigning champion and the hall of fame",
}, func(ctx *Context) game.Response {
	board := ctx.World.Board()
	epoch, epochStart := ctx.World.Epoch()
	return game.OK("", map[string]any{
		"epoch":       epoch,
		"epoch_start": epochStart,
		"board":       board,
	})
})

var AdminResetRequest = Define(Definition{
	Name:            "admin_reset_request",
	Description:     "begin a manual campaign reset (administrators only)",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	token, err := ctx.World.RequestAdminReset(ctx.Session.Account())
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("confirm within five minutes", map[string]any{"token": token})
})

var AdminResetConfirm = Define(Definition{
	Name:            "admin_reset_confirm",
	Description:     "confirm a pending manual campaign reset",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Token string `json:"token"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.ConfirmAdminReset(ctx.Session.Account(), p.Token); err != nil {
		return game.Fail(err)
	}
	return game.OK("campaign reset", nil)
})
