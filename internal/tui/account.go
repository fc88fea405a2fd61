package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
)

// accountPage edits the user's first and last name. The username is
// shown read-only; after a successful save the session manager has
// re-fetched the user, so the form is re-seeded from the fresh snapshot.
type accountPage struct {
	username  string
	firstName textinput.Model
	lastName  textinput.Model
	focus     int
	busy      bool
	errText   string
}

func newAccountPage(user *api.User) *accountPage {
	firstName := textinput.New()
	firstName.Placeholder = "first name"
	firstName.Focus()

	lastName := textinput.New()
	lastName.Placeholder = "last name"

	p := &accountPage{firstName: firstName, lastName: lastName}
	p.seed(user)
	return p
}

func (p *accountPage) seed(user *api.User) {
	if user == nil {
		return
	}
	p.username = user.Username
	p.firstName.SetValue(user.FirstName)
	p.lastName.SetValue(user.LastName)
}

func (p *accountPage) fail(err error) {
	p.busy = false
	p.errText = err.Error()
}

func (p *accountPage) saved(user *api.User) {
	p.busy = false
	p.errText = ""
	p.seed(user)
}

func (p *accountPage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || p.busy {
		return nil
	}

	switch key.String() {
	case "tab", "down", "shift+tab", "up":
		p.focus = (p.focus + 1) % 2
		if p.focus == 0 {
			p.firstName.Focus()
			p.lastName.Blur()
		} else {
			p.firstName.Blur()
			p.lastName.Focus()
		}
		return nil
	case "esc":
		return navigateTo(nav.RouteHome)
	case "enter":
		p.busy = true
		p.errText = ""
		return a.saveProfileCmd(api.ProfileUpdate{
			FirstName: p.firstName.Value(),
			LastName:  p.lastName.Value(),
		})
	}

	var cmd tea.Cmd
	if p.focus == 0 {
		p.firstName, cmd = p.firstName.Update(msg)
	} else {
		p.lastName, cmd = p.lastName.Update(msg)
	}
	return cmd
}

func (p *accountPage) view() string {
	out := titleStyle.Render("Account") + "\n"
	out += labelStyle.Render("Username") + "\n" + p.username + "\n\n"
	out += labelStyle.Render("First name") + "\n" + p.firstName.View() + "\n"
	out += labelStyle.Render("Last name") + "\n" + p.lastName.View() + "\n"
	if p.busy {
		out += "\n" + labelStyle.Render("Saving...")
	}
	if p.errText != "" {
		out += "\n" + errorStyle.Render(p.errText)
	}
	out += helpStyle.Render("enter save · tab next field · esc back")
	return out
}
