package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/smsledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/smsledger/internal/cache"
	"github.com/MrJamesThe3rd/smsledger/internal/config"
	"github.com/MrJamesThe3rd/smsledger/internal/database"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/smsledger/internal/matching/store"
	"github.com/MrJamesThe3rd/smsledger/internal/merchant"
	merchantCache "github.com/MrJamesThe3rd/smsledger/internal/merchant/cache"
	merchantStore "github.com/MrJamesThe3rd/smsledger/internal/merchant/store"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/smsledger/internal/transaction/store"
)

type model struct {
	userID            string
	txService         *transaction.Service
	resolutionService *resolution.Service

	currentView View

	reviewView view.ReviewModel
	ledgerView view.LedgerModel
}

type View int

const (
	ViewMenu   View = 0
	ViewReview View = 1
	ViewLedger View = 2
)

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load config", err)
	}

	if cfg.TUI.UserID == "" {
		fail("failed to start", fmt.Errorf("TUI_USER_ID is required"))
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		fail("failed to connect to database", err)
	}

	// Share the API's merchant cache so edits made here are not shadowed by
	// stale cached categories.
	var merchantRepo merchant.Repository = merchantStore.New(db)

	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(context.Background(), cfg.Redis.URL)
		if err != nil {
			fail("failed to connect to redis", err)
		}

		merchantRepo = merchantCache.New(merchantRepo, rdb, cfg.Redis.CacheTTL)
	}

	txSvc := transaction.NewService(txStore.New(db))
	resSvc := resolution.NewService(
		txSvc,
		merchant.NewService(merchantRepo),
		matching.NewService(matchingStore.New(db)),
		notify.Multi{},
	)

	return model{
		userID:            cfg.TUI.UserID,
		txService:         txSvc,
		resolutionService: resSvc,
		currentView:       ViewMenu,
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
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.resolutionService, m.userID)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewLedger
				m.ledgerView = view.NewLedgerModel(m.txService, m.userID)

				return m, m.ledgerView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"SMS Ledger\n\n" +
				"1. Review Pending Transactions\n" +
				"2. Ledger\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewLedger:
		return m.ledgerView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fail("failed to run TUI", err)
	}
}
