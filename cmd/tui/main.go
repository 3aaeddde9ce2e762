package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txsync/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/txsync/internal/config"
	"github.com/MrJamesThe3rd/txsync/internal/database"
	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	txStore "github.com/MrJamesThe3rd/txsync/internal/transaction/store"
)

type model struct {
	importer   view.Importer
	reconciler view.Reconciler
	owner      string

	currentView View

	importView    view.ImportModel
	reconcileView view.ReconcileModel
}

type View int

const (
	ViewMenu      View = 0
	ViewImport    View = 1
	ViewReconcile View = 2
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a file.
	logFile, err := tea.LogToFile("txsync-tui.log", "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := cfg.Logger(logFile)
	slog.SetDefault(log)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := txStore.New(db)

	ingestSvc := ingest.NewService(store, ingest.Config{
		CategoryID:    cfg.Ingest.CategoryID,
		SubcategoryID: cfg.Ingest.SubcategoryID,
		LookupWindow:  cfg.Ingest.LookupWindow,
		ChunkSize:     cfg.Ingest.ChunkSize,
	}, ingest.WithLogger(log))

	engine := reconcile.NewEngine(store, reconcile.Config{
		PageSize:        cfg.Reconcile.PageSize,
		PageDelay:       cfg.Reconcile.PageDelay,
		DeleteBatchSize: cfg.Reconcile.DeleteBatchSize,
	}, reconcile.WithLogger(log))

	m := newModel(importer.NewService(ingestSvc, cfg.App.OwnerID, log), engine, cfg.App.OwnerID)

	if _, err := tea.NewProgram(m).Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

func newModel(imp view.Importer, rec view.Reconciler, owner string) model {
	return model{
		importer:      imp,
		reconciler:    rec,
		owner:         owner,
		currentView:   ViewMenu,
		importView:    view.NewImportModel(imp),
		reconcileView: view.NewReconcileModel(rec, owner, time.Now),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.importer)

				return m, m.importView.Init()
			case "2":
				m.currentView = ViewReconcile
				m.reconcileView = view.NewReconcileModel(m.reconciler, m.owner, time.Now)

				return m, m.reconcileView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewReconcile:
		var newModel tea.Model
		newModel, cmd = m.reconcileView.Update(msg)
		m.reconcileView = newModel.(view.ReconcileModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("txsync (%s)\n\n", m.owner) +
				"1. Import Export File\n" +
				"2. Reconcile Transactions\n\n" +
				"q. Quit",
		)
	case ViewImport:
		return m.importView.View()
	case ViewReconcile:
		return m.reconcileView.View()
	}

	return "Unknown View"
}
