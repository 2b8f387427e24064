package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var News = Define(Definition{
	Name:              "news",
	Description:       "read the galactic news feed",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		Limit int `json:"limit"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	return game.OK("", map[string]any{"news": ctx.World.News(p.Limit)})
})

var PostNews = Define(Definition{
	Name:            "post_news",
	Description:     "publish a galactic news bulletin (administrators only)",
	RequiresAccount: true,
}, func(ctx *Context) game.Response {
	if !ctx.World.Accounts().IsAdmin(ctx.Session.Account()) {
		return game.Fail(game.Reject(game.RejectNotOwner, "administrator access required"))
	}
	var p struct {
		Headline string `json:"headline"`
		Body     string `json:"body"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if p.Headline == "" {
		return game.Fail(game.Reject(game.RejectInvalidRequest, "headline must not be empty"))
	}
	ctx.World.PostNews(p.Headline, p.Body)
	return game.OK("bulletin posted", nil)
})
