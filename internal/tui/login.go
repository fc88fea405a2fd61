package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
)

type loginPage struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
}

func newLoginPage() *loginPage {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	return &loginPage{username: username, password: password}
}

func (p *loginPage) fail(err error) {
	p.busy = false
	if errors.Is(err, api.ErrUnauthorized) {
		p.errText = "Incorrect username or password."
		return
	}
	p.errText = err.Error()
}

func (p *loginPage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || p.busy {
		return nil
	}

	switch key.String() {
	case "tab", "down", "shift+tab", "up":
		p.focus = (p.focus + 1) % 2
		if p.focus == 0 {
			p.username.Focus()
			p.password.Blur()
		} else {
			p.username.Blur()
			p.password.Focus()
		}
		return nil
	case "enter":
		if p.username.Value() == "" || p.password.Value() == "" {
			p.errText = "Username and password are required"
			return nil
		}
		p.busy = true
		p.errText = ""
		return a.loginCmd(api.Credentials{
			Username: p.username.Value(),
			Password: p.password.Value(),
		})
	case "ctrl+r":
		return navigateTo(nav.RouteRegister)
	}

	var cmd tea.Cmd
	if p.focus == 0 {
		p.username, cmd = p.username.Update(msg)
	} else {
		p.password, cmd = p.password.Update(msg)
	}
	return cmd
}

func (p *loginPage) view() string {
	out := titleStyle.Render("Impala — Log in") + "\n"
	out += labelStyle.Render("Username") + "\n" + p.username.View() + "\n"
	out += labelStyle.Render("Password") + "\n" + p.password.View() + "\n"
	if p.busy {
		out += "\n" + labelStyle.Render("Signing in...")
	}
	if p.errText != "" {
		out += "\n" + errorStyle.Render(p.errText)
	}
	out += helpStyle.Render("enter submit · tab next field · ctrl+r register · ctrl+c quit")
	return out
}
