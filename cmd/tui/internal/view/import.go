package view

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/txsync/internal/importer"
)

// Importer ingests one export file into an account.
type Importer interface {
	ImportFile(ctx context.Context, path string, target importer.Target) (*importer.Report, error)
}

type importState int

const (
	importStateTarget importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

// importFields backs the target form. It lives behind a pointer so the form
// keeps writing to the same values as the model is copied around.
type importFields struct {
	format  string
	account string
	bank    string
}

func (f *importFields) target() importer.Target {
	account, _ := strconv.ParseInt(f.account, 10, 64)
	bank, _ := strconv.ParseInt(f.bank, 10, 64)

	return importer.Target{Format: f.format, AccountID: account, BankID: bank}
}

type ImportModel struct {
	CommonModel
	importer Importer

	state      importState
	fields     *importFields
	form       *huh.Form
	filePicker filepicker.Model
	spinner    spinner.Model

	report *importer.Report
	status string
	err    error
}

func NewImportModel(imp Importer) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ImportModel{
		importer:   imp,
		fields:     &importFields{format: importer.FormatAuto},
		filePicker: fp,
		spinner:    s,
	}
	m.form = m.buildTargetForm()

	return m
}

func positiveID(s string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("enter a positive number")
	}

	return nil
}

func (m ImportModel) buildTargetForm() *huh.Form {
	options := []huh.Option[string]{huh.NewOption("Detect automatically", importer.FormatAuto)}
	for _, p := range importer.Profiles() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Description), p.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("format").
				Title("Export Format").
				Options(options...).
				Value(&m.fields.format),
			huh.NewInput().
				Key("account").
				Title("Account ID").
				Validate(positiveID).
				Value(&m.fields.account),
			huh.NewInput().
				Key("bank").
				Title("Bank ID").
				Validate(positiveID).
				Value(&m.fields.bank),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Title() string { return "Import Transactions" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateImporting:
		return "Importing..."
	case importStateResult:
		return "Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.handleEsc()
	}

	switch m.state {
	case importStateTarget:
		return m.updateTarget(msg)
	case importStateFilePick:
		return m.updateFilePick(msg)
	case importStateImporting:
		return m.updateImporting(msg)
	}

	return m, nil
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult:
		m.state = importStateTarget
		m.report = nil
		m.err = nil
		m.status = ""
		m.form = m.buildTargetForm()

		return m, m.form.Init()
	case importStateImporting:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateTarget(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = importStateFilePick

	return m, m.filePicker.Init()
}

func (m ImportModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing %s...", path)

		return m, tea.Batch(m.spinner.Tick, m.importCmd(path, m.fields.target()))
	}

	return m, cmd
}

func (m ImportModel) updateImporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(importResultMsg); ok {
		m.state = importStateResult
		m.report = result.report
		m.err = result.err

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateTarget:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case importStateFilePick:
		t := m.fields.target()

		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select export for account %d (%s):\n\n%s", t.AccountID, t.Format, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " " + m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var body []string

	if m.report != nil {
		body = append(body, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).
			Render(fmt.Sprintf("Imported %s", m.report.Profile)), "")
		body = append(body, summaryLines(m.report)...)

		for _, rej := range m.report.Rejected {
			body = append(body, errStyle.Render(rej.Error()))
		}
	}

	if m.err != nil {
		body = append(body, "", errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	body = append(body, "", "(Esc to go back)")

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func summaryLines(r *importer.Report) []string {
	s := r.Summary

	return []string{
		fmt.Sprintf("Attempted:  %d", s.Attempted),
		fmt.Sprintf("Inserted:   %d", s.Inserted),
		fmt.Sprintf("Skipped:    %d", s.Skipped),
		fmt.Sprintf("Failed:     %d", s.Failed),
		fmt.Sprintf("Malformed:  %d", s.Malformed),
		fmt.Sprintf("No category: %d", s.CategoryFailed),
	}
}

type importResultMsg struct {
	report *importer.Report
	err    error
}

func (m ImportModel) importCmd(path string, target importer.Target) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		report, err := m.importer.ImportFile(ctx, path, target)

		return importResultMsg{report: report, err: err}
	}
}
