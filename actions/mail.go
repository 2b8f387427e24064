package actions

import (
	"github.com/QuantumPixelator/StarshipTerminal/internal/game"
)

var Mail = Define(Definition{
	Name:              "mail",
	Description:       "list inbox and archive",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	inbox, archive, err := ctx.World.Mailbox(ctx.Commander)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", map[string]any{
		"inbox":   inbox,
		"archive": archive,
	})
})

var SendMail = Define(Definition{
	Name:              "send_mail",
	Description:       "send mail to another commander",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	data, err := ctx.World.SendMail(ctx.Commander, p.To, p.Subject, p.Body)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("mail sent", data)
})

var ReadMail = Define(Definition{
	Name:              "read_mail",
	Description:       "read one message and mark it read",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		ID string `json:"id"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	msg, err := ctx.World.ReadMail(ctx.Commander, p.ID)
	if err != nil {
		return game.Fail(err)
	}
	return game.OK("", map[string]any{"message": msg})
})

var ArchiveMail = Define(Definition{
	Name:              "archive_mail",
	Description:       "move a message from inbox to archive",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		ID string `json:"id"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.ArchiveMail(ctx.Commander, p.ID); err != nil {
		return game.Fail(err)
	}
	return game.OK("message archived", nil)
})

var DeleteMail = Define(Definition{
	Name:              "delete_mail",
	Description:       "delete a message permanently",
	RequiresCharacter: true,
}, func(ctx *Context) game.Response {
	var p struct {
		ID string `json:"id"`
	}
	if err := ctx.params(&p); err != nil {
		return game.Fail(err)
	}
	if err := ctx.World.DeleteMail(ctx.Commander, p.ID); err != nil {
		return game.Fail(err)
	}
	return game.OK("message deleted", nil)
})
