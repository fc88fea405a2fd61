package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/impala/internal/nav"
)

type newProjectPage struct {
	name        textinput.Model
	description textinput.Model
	focus       int
	busy        bool
	errText     string
}

func newNewProjectPage() *newProjectPage {
	name := textinput.New()
	name.Placeholder = "project name"
	name.Focus()

	description := textinput.New()
	description.Placeholder = "description (optional)"

	return &newProjectPage{name: name, description: description}
}

func (p *newProjectPage) fail(err error) {
	p.busy = false
	p.errText = err.Error()
}

func (p *newProjectPage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || p.busy {
		return nil
	}

	switch key.String() {
	case "tab", "down", "shift+tab", "up":
		p.focus = (p.focus + 1) % 2
		if p.focus == 0 {
			p.name.Focus()
			p.description.Blur()
		} else {
			p.name.Blur()
			p.description.Focus()
		}
		return nil
	case "esc":
		return navigateTo(nav.RouteHome)
	case "enter":
		if p.name.Value() == "" {
			p.errText = "Project name is required"
			return nil
		}
		p.busy = true
		p.errText = ""
		return a.createProjectCmd(p.name.Value(), p.description.Value())
	}

	var cmd tea.Cmd
	if p.focus == 0 {
		p.name, cmd = p.name.Update(msg)
	} else {
		p.description, cmd = p.description.Update(msg)
	}
	return cmd
}

func (p *newProjectPage) view() string {
	out := titleStyle.Render("New project") + "\n"
	out += labelStyle.Render("Name") + "\n" + p.name.View() + "\n"
	out += labelStyle.Render("Description") + "\n" + p.description.View() + "\n"
	if p.busy {
		out += "\n" + labelStyle.Render("Creating...")
	}
	if p.errText != "" {
		out += "\n" + errorStyle.Render(p.errText)
	}
	out += helpStyle.Render("enter create · esc cancel")
	return out
}
