package actions

import (
	"time"

	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var CheckAccount = Define(Definition{
	Name:        "check_account",
	Description: "report whether an account name is registered",
}, func(ctx *Context) game.Response {
	var p struct {
		Account string `json:"account"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	return game.OK("", map[string]any{
		"account": p.Account,
		"exists":  ctx.World.Accounts().Exists(p.Account),
	})
})

var CreateAccount = Define(Definition{
	Name:        "create_account",
	Description: "register a new account",
}, func(ctx *Context) game.Response {
	var p struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.Accounts().Register(p.Account, p.Password); err != nil {
		return game.Fail(err)
	}
	if err := ctx.Session.Authenticate(p.Account); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.Accounts().RecordLogin(p.Account, time.Now().UTC()); err != nil {
		return game.Fail(err)
	}
	return game.OK("account created", map[string]any{"account": p.Account})
})

var Login = Define(Definition{
	Name:        "login",
	Description: "authenticate an account",
}, func(ctx *Context) game.Response {
	var p struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.Accounts().Authenticate(p.Account, p.Password); err != nil {
		return game.Fail(err)
	}
	if err := ctx.Session.Authenticate(p.Account); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.Accounts().RecordLogin(p.Account, time.Now().UTC()); err != nil {
		return game.Fail(err)
	}
	return game.OK("welcome back", map[string]any{
		"account":    p.Account,
		"characters": ctx.World.Accounts().Characters(p.Account),
	})
})

var ListCharacters = Define(Definition{
	Name:            "list_characters",
	Description:     "list the account's commanders",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	return game.OK("", map[string]any{
		"characters": ctx.World.Accounts().Characters(ctx.Session.Account()),
	})
})

var CreateCharacter = Define(Definition{
	Name:            "create_character",
	Description:     "create a new commander on this account",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Name string `json:"name"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.CreateCommander(ctx.Session.Account(), p.Name)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("commander created", data)
})

var SelectCharacter = Define(Definition{
	Name:            "select_character",
	Description:     "enter the game as one of the account's commanders",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Name string `json:"name"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	account := ctx.Session.Account()
	if !ctx.World.Accounts().Owns(account, p.Name) {
		return game.Fail(game.Reject(game.RejectNotOwner, "no such commander on this account"))
	}
	report, err := ctx.World.CommanderReport(p.Name)
	if err != nil {
		return game.Fail(err)
	}
	previous := ctx.Session.Commander()
	if err := ctx.Session.SelectCommander(p.Name); err != nil {
		return game.Fail(err)
	}
	if previous != "" && previous != p.Name {
		ctx.World.ReleaseCommander(ctx.Session, previous)
	}
	ctx.World.BindCommander(ctx.Session, p.Name)
	return game.OK("commander selected", report)
})

var Logout = Define(Definition{
	Name:              "logout",
	Description:       "leave the game, returning to character selection",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	if err := ctx.Session.Logout(); err != nil {
		return game.Fail(err)
	}
	ctx.World.ReleaseCommander(ctx.Session, ctx.Commander)
	return game.OK("logged out", nil)
})
