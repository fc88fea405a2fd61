package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ganot/impala/internal/nav"
	"github.com/ganot/impala/internal/resources"
)

type detailTab int

const (
	tabData detailTab = iota
	tabCanvases
)

// detailPage renders one project's data sources and canvases. The lists
// come from the synchronizer snapshot at render time; the page itself
// only tracks which tab is open and the state of the two inline forms.
type detailPage struct {
	projectID int64
	tab       detailTab

	uploading  bool
	uploadPath textinput.Model
	uploadBusy bool
	uploadErr  string

	naming     bool
	canvasName textinput.Model
	canvasBusy bool
	canvasErr  string
}

func newDetailPage(projectID int64) *detailPage {
	uploadPath := textinput.New()
	uploadPath.Placeholder = "path to .csv file"

	canvasName := textinput.New()
	canvasName.Placeholder = "canvas name"

	return &detailPage{
		projectID:  projectID,
		uploadPath: uploadPath,
		canvasName: canvasName,
	}
}

func (p *detailPage) failUpload(err error) {
	p.uploadBusy = false
	p.uploadErr = err.Error()
}

// uploadDone clears the form after a confirmed upload.
func (p *detailPage) uploadDone() {
	p.uploading = false
	p.uploadBusy = false
	p.uploadErr = ""
	p.uploadPath.SetValue("")
	p.uploadPath.Blur()
}

func (p *detailPage) failCanvas(err error) {
	p.canvasBusy = false
	p.canvasErr = err.Error()
}

func (p *detailPage) canvasDone() {
	p.naming = false
	p.canvasBusy = false
	p.canvasErr = ""
	p.canvasName.SetValue("")
	p.canvasName.Blur()
}

func (p *detailPage) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if p.uploading {
		return p.updateUploadForm(a, key, msg)
	}
	if p.naming {
		return p.updateCanvasForm(a, key, msg)
	}

	switch key.String() {
	case "tab", "left", "right":
		if p.tab == tabData {
			p.tab = tabCanvases
		} else {
			p.tab = tabData
		}
	case "u":
		if p.tab == tabData {
			p.uploading = true
			p.uploadPath.Focus()
		}
	case "c":
		if p.tab == tabCanvases {
			p.naming = true
			p.canvasName.Focus()
		}
	case "esc", "q":
		return navigateTo(nav.RouteHome)
	}
	return nil
}

func (p *detailPage) updateUploadForm(a *App, key tea.KeyMsg, msg tea.Msg) tea.Cmd {
	if p.uploadBusy {
		return nil
	}
	switch key.String() {
	case "esc":
		p.uploadDone()
		return nil
	case "enter":
		if p.uploadPath.Value() == "" {
			p.uploadErr = "File path is required"
			return nil
		}
		p.uploadBusy = true
		p.uploadErr = ""
		return a.uploadCmd(p.projectID, p.uploadPath.Value())
	}
	var cmd tea.Cmd
	p.uploadPath, cmd = p.uploadPath.Update(msg)
	return cmd
}

func (p *detailPage) updateCanvasForm(a *App, key tea.KeyMsg, msg tea.Msg) tea.Cmd {
	if p.canvasBusy {
		return nil
	}
	switch key.String() {
	case "esc":
		p.canvasDone()
		return nil
	case "enter":
		if p.canvasName.Value() == "" {
			p.canvasErr = "Canvas name is required"
			return nil
		}
		p.canvasBusy = true
		p.canvasErr = ""
		return a.createCanvasCmd(p.projectID, p.canvasName.Value())
	}
	var cmd tea.Cmd
	p.canvasName, cmd = p.canvasName.Update(msg)
	return cmd
}

func (p *detailPage) view(detail *resources.Detail) string {
	if detail == nil || detail.ProjectID != p.projectID {
		return labelStyle.Render("Loading project...")
	}
	if detail.NotFound {
		out := errorStyle.Render("Project not found") + "\n"
		out += helpStyle.Render("esc back")
		return out
	}

	tabs := []string{"Data", "Canvases"}
	var rendered []string
	for i, label := range tabs {
		style := tabStyle
		if detailTab(i) == p.tab {
			style = activeTabStyle
		}
		rendered = append(rendered, style.Render(label))
	}
	out := titleStyle.Render(fmt.Sprintf("Project %d", p.projectID)) + "\n"
	out += lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n\n"

	switch p.tab {
	case tabData:
		if len(detail.DataSources) == 0 {
			out += labelStyle.Render("No data sources yet") + "\n"
		}
		for _, source := range detail.DataSources {
			out += fmt.Sprintf("  %s\n", source.FileName)
		}
		if p.uploading {
			out += "\n" + labelStyle.Render("Upload CSV") + "\n" + p.uploadPath.View() + "\n"
			if p.uploadBusy {
				out += labelStyle.Render("Uploading...") + "\n"
			}
			if p.uploadErr != "" {
				out += errorStyle.Render(p.uploadErr) + "\n"
			}
			out += helpStyle.Render("enter upload · esc cancel")
		} else {
			out += helpStyle.Render("u upload csv · tab switch tab · esc back")
		}
	case tabCanvases:
		if len(detail.Canvases) == 0 {
			out += labelStyle.Render("No canvases yet") + "\n"
		}
		for _, canvas := range detail.Canvases {
			out += fmt.Sprintf("  %s\n", canvas.Name)
		}
		if p.naming {
			out += "\n" + labelStyle.Render("New canvas") + "\n" + p.canvasName.View() + "\n"
			if p.canvasBusy {
				out += labelStyle.Render("Creating...") + "\n"
			}
			if p.canvasErr != "" {
				out += errorStyle.Render(p.canvasErr) + "\n"
			}
			out += helpStyle.Render("enter create · esc cancel")
		} else {
			out += helpStyle.Render("c new canvas · tab switch tab · esc back")
		}
	}
	return out
}
