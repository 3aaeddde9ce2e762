package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// Reconciler deletes the transactions a filter selects.
type Reconciler interface {
	Reconcile(ctx context.Context, filter transaction.Filter) (*reconcile.Result, error)
}

type reconcileState int

const (
	reconcileStateTimeframe reconcileState = iota
	reconcileStateConfirm
	reconcileStateRunning
	reconcileStateResult
)

type reconcileFields struct {
	accounts string
	confirm  bool
}

// parseAccounts reads a comma or space separated id list. Empty means all.
func parseAccounts(s string) ([]int64, error) {
	var ids []int64

	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid account id %q", f)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

type ReconcileModel struct {
	CommonModel
	reconciler Reconciler
	owner      string

	state           reconcileState
	timeframePicker TimeframePicker
	rng             *transaction.DateRange
	fields          *reconcileFields
	form            *huh.Form
	spinner         spinner.Model

	result *reconcile.Result
	err    error
}

func NewReconcileModel(r Reconciler, owner string, now func() time.Time) ReconcileModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ReconcileModel{
		reconciler:      r,
		owner:           owner,
		state:           reconcileStateTimeframe,
		timeframePicker: NewTimeframePicker(now),
		fields:          &reconcileFields{},
		spinner:         s,
	}
}

func (m ReconcileModel) Title() string { return "Reconcile Transactions" }

func (m ReconcileModel) ShortHelp() string {
	switch m.state {
	case reconcileStateResult:
		return "Esc: back to menu"
	case reconcileStateRunning:
		return "Deleting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ReconcileModel) Init() tea.Cmd {
	return nil
}

func (m ReconcileModel) filter() (transaction.Filter, error) {
	ids, err := parseAccounts(m.fields.accounts)
	if err != nil {
		return transaction.Filter{}, err
	}

	return transaction.Filter{Owner: m.owner, AccountIDs: ids, Range: m.rng}, nil
}

func (m ReconcileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if tfMsg, ok := msg.(TimeframeSelectedMsg); ok {
		m.rng = tfMsg.Range
		m.fields = &reconcileFields{}
		m.form = m.buildConfirmForm()
		m.state = reconcileStateConfirm

		return m, m.form.Init()
	}

	switch m.state {
	case reconcileStateTimeframe:
		return m.updateTimeframe(msg)
	case reconcileStateConfirm:
		return m.updateConfirm(msg)
	case reconcileStateRunning:
		return m.updateRunning(msg)
	case reconcileStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ReconcileModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m ReconcileModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.backToTimeframe(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.fields.confirm {
		return m.backToTimeframe(), nil
	}

	filter, err := m.filter()
	if err != nil {
		m.state = reconcileStateResult
		m.err = err

		return m, nil
	}

	m.state = reconcileStateRunning
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.reconcileCmd(filter))
}

func (m ReconcileModel) backToTimeframe() ReconcileModel {
	m.state = reconcileStateTimeframe
	m.timeframePicker.Reset()

	return m
}

func (m ReconcileModel) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(reconcileResultMsg); ok {
		m.state = reconcileStateResult
		m.result = result.result
		m.err = result.err

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ReconcileModel) describeRange() string {
	if m.rng == nil {
		return "all dates"
	}

	return fmt.Sprintf("%s to %s", FormatDate(m.rng.From), FormatDate(m.rng.To.AddDate(0, 0, -1)))
}

func (m ReconcileModel) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("accounts").
				Title("Accounts").
				Description("Comma separated account ids, empty for all accounts").
				Validate(func(s string) error {
					_, err := parseAccounts(s)
					return err
				}).
				Value(&m.fields.accounts),
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete transactions of %s, %s?", m.owner, m.describeRange())).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.fields.confirm),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ReconcileModel) View() string {
	switch m.state {
	case reconcileStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	case reconcileStateConfirm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case reconcileStateRunning:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Deleting transactions, %s...", m.spinner.View(), m.describeRange()),
		)
	case reconcileStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ReconcileModel) viewResult() string {
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var partial *transaction.PartialReconciliationError

	switch {
	case errors.As(m.err, &partial):
		return lipgloss.NewStyle().Padding(1).Render(errStyle.Render(
			fmt.Sprintf("Matched %d transactions but %d are still stored. Run again to retry.",
				m.result.Matched, partial.Remaining),
		))
	case m.err != nil:
		return lipgloss.NewStyle().Padding(1).Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Reconciliation Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			fmt.Sprintf("Deleted %d transactions (%s).", m.result.Matched, m.describeRange()),
		),
	)
}

type reconcileResultMsg struct {
	result *reconcile.Result
	err    error
}

func (m ReconcileModel) reconcileCmd(filter transaction.Filter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		res, err := m.reconciler.Reconcile(ctx, filter)

		return reconcileResultMsg{result: res, err: err}
	}
}
