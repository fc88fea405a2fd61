package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ganot/impala/internal/api"
	"github.com/ganot/impala/internal/nav"
)

// homePage shows the project sidebar next to a welcome pane. The list
// snapshot comes from the synchronizer at render time, so a completed
// refetch is visible on the next frame without page bookkeeping.
type homePage struct {
	selected int
}

func newHomePage() *homePage {
	return &homePage{}
}

func (p *homePage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	projects := a.syncer.Projects()
	switch key.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(projects)-1 {
			p.selected++
		}
	case "enter":
		if p.selected >= 0 && p.selected < len(projects) {
			return navigateTo(nav.ProjectRoute(projects[p.selected].ID))
		}
	case "n":
		return navigateTo(nav.RouteNewProject)
	case "a":
		return navigateTo(nav.RouteAccount)
	case "L":
		return a.logoutCmd()
	case "q":
		return tea.Quit
	}
	return nil
}

func (p *homePage) view(projects []api.Project, user *api.User) string {
	sidebar := titleStyle.Render("Projects") + "\n"
	if len(projects) == 0 {
		sidebar += labelStyle.Render("No projects yet")
	}
	for i, project := range projects {
		line := project.Name
		if i == p.selected {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		sidebar += line + "\n"
	}

	name := ""
	if user != nil {
		name = user.FirstName
		if name == "" {
			name = user.Username
		}
	}
	main := titleStyle.Render(fmt.Sprintf("Welcome, %s", name)) + "\n"
	main += labelStyle.Render("Select a project to see its data sources and canvases.")

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(sidebar), main)
	body += helpStyle.Render("\nenter open · n new project · a account · L log out · q quit")
	return body
}
