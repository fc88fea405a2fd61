package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
)

type registerPage struct {
	inputs  []textinput.Model
	focus   int
	busy    bool
	errText string
}

const (
	regUsername = iota
	regPassword
	regConfirm
)

func newRegisterPage() *registerPage {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.EchoMode = textinput.EchoPassword

	return &registerPage{inputs: []textinput.Model{username, password, confirm}}
}

func (p *registerPage) fail(err error) {
	p.busy = false
	p.errText = err.Error()
}

func (p *registerPage) setFocus(i int) {
	p.focus = i
	for idx := range p.inputs {
		if idx == i {
			p.inputs[idx].Focus()
		} else {
			p.inputs[idx].Blur()
		}
	}
}

func (p *registerPage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || p.busy {
		return nil
	}

	switch key.String() {
	case "tab", "down":
		p.setFocus((p.focus + 1) % len(p.inputs))
		return nil
	case "shift+tab", "up":
		p.setFocus((p.focus + len(p.inputs) - 1) % len(p.inputs))
		return nil
	case "esc":
		return navigateTo(nav.RouteLogin)
	case "enter":
		username := p.inputs[regUsername].Value()
		password := p.inputs[regPassword].Value()
		switch {
		case username == "" || password == "":
			p.errText = "Username and password are required"
		case password != p.inputs[regConfirm].Value():
			p.errText = "Passwords do not match"
		default:
			p.busy = true
			p.errText = ""
			return a.registerCmd(api.Credentials{Username: username, Password: password})
		}
		return nil
	}

	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *registerPage) view() string {
	out := titleStyle.Render("Impala — Create account") + "\n"
	labels := []string{"Username", "Password", "Confirm password"}
	for i, input := range p.inputs {
		out += labelStyle.Render(labels[i]) + "\n" + input.View() + "\n"
	}
	if p.busy {
		out += "\n" + labelStyle.Render("Creating account...")
	}
	if p.errText != "" {
		out += "\n" + errorStyle.Render(p.errText)
	}
	out += helpStyle.Render("enter submit · tab next field · esc back to login")
	return out
}
