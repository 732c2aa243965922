package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

// ReviewModel walks through transactions waiting for details and resolves
// them one at a time.
type ReviewModel struct {
	CommonModel
	svc *resolution.Service

	queue      []*transaction.Transaction
	currentTx  *transaction.Transaction
	suggestion resolution.Suggestion
	form       *huh.Form

	status     string
	loading    bool
	totalCount int

	// Form bindings
	formMerchant string
	formCategory string
	formPattern  bool
}

func NewReviewModel(svc *resolution.Service, userID string) ReviewModel {
	return ReviewModel{
		CommonModel: CommonModel{UserID: userID},
		svc:         svc,
		loading:     true,
		status:      "Loading pending transactions...",
	}
}

func (m ReviewModel) Title() string { return "Review Pending" }
func (m ReviewModel) ShortHelp() string {
	return "Enter: next field/save | ctrl+n: skip | ctrl+x: dismiss | Esc: back"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadPendingCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPendingMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading transactions: %v", msg.err)
			return m, nil
		}

		m.queue = msg.txs
		m.totalCount = len(m.queue)

		return m.next()

	case suggestionMsg:
		m.suggestion = msg.suggestion
		m.formMerchant = msg.suggestion.Merchant
		m.formCategory = msg.suggestion.Category
		m.formPattern = false

		return m, m.buildForm()

	case reviewSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, m.buildForm()
		}

		return m.next()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "ctrl+n":
			if m.currentTx != nil {
				return m.next()
			}
		case "ctrl+x":
			if m.currentTx != nil {
				return m, m.dismissCmd()
			}
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	// Bound fields live in an earlier copy of the model; read the form.
	m.formMerchant = m.form.GetString("merchant")
	m.formCategory = m.form.GetString("category")
	m.formPattern = m.form.GetBool("save_as_pattern")
	m.form = nil

	return m, m.resolveCmd()
}

func (m ReviewModel) next() (tea.Model, tea.Cmd) {
	m.form = nil

	if len(m.queue) == 0 {
		m.currentTx = nil
		m.status = "All done! Nothing waits for details."

		return m, nil
	}

	m.currentTx = m.queue[0]
	m.queue = m.queue[1:]
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	return m, m.suggestCmd(m.currentTx)
}

// buildForm binds the form to the current values. A merchant the message
// never named starts blank.
func (m *ReviewModel) buildForm() tea.Cmd {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("merchant").
				Title("Merchant").
				Value(&m.formMerchant).
				Validate(required("merchant")),

			huh.NewInput().
				Key("category").
				Title("Category").
				Placeholder("Food, Travel, Bills...").
				Value(&m.formCategory).
				Validate(required("category")),

			huh.NewConfirm().
				Key("save_as_pattern").
				Title("Remember this message format?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.formPattern),
		),
	).WithWidth(50).WithShowHelp(false)

	return m.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func (m ReviewModel) View() string {
	if m.loading || m.currentTx == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	tx := m.currentTx
	info := fmt.Sprintf(
		"Date:    %s\nAmount:  %s\nSender:  %s\nMessage: %s\n",
		FormatDate(tx.Date),
		FormatAmount(tx.Amount, tx.Currency),
		tx.Sender,
		tx.RawMessage,
	)

	if m.suggestion.Source != resolution.SourceNone && m.suggestion.Source != "" {
		info += lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("Suggested from %s", m.suggestion.Source)) + "\n"
	}

	form := ""
	if m.form != nil {
		form = m.form.View()
	}

	return lipgloss.NewStyle().Padding(2).Render(
		fmt.Sprintf("%s\n\n%s\n%s", m.status, info, form),
	)
}

// Messages

type loadPendingMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ReviewModel) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.svc.Pending(ctx, m.UserID)

		return loadPendingMsg{txs: txs, err: err}
	}
}

type suggestionMsg struct {
	suggestion resolution.Suggestion
}

func (m ReviewModel) suggestCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		// Without a suggestion the form simply starts empty.
		s, _ := m.svc.Suggest(ctx, tx)

		return suggestionMsg{suggestion: s}
	}
}

type reviewSaveMsg struct {
	err error
}

func (m ReviewModel) resolveCmd() tea.Cmd {
	params := resolution.ResolveParams{
		ID:            m.currentTx.ID,
		UserID:        m.UserID,
		Merchant:      m.formMerchant,
		Category:      m.formCategory,
		SaveAsPattern: m.formPattern,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.svc.Resolve(ctx, params)

		return reviewSaveMsg{err: err}
	}
}

func (m ReviewModel) dismissCmd() tea.Cmd {
	id := m.currentTx.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.svc.Dismiss(ctx, id, m.UserID)

		return reviewSaveMsg{err: err}
	}
}
