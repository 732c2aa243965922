package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
)

type statusTab struct {
	label  string
	status *transaction.Status
}

type period struct {
	label string
	days  int // 0 means unbounded
}

var (
	statusTabs = []statusTab{
		{label: "All"},
		{label: "Needs details", status: new(transaction.StatusAwaitingInput)},
		{label: "Resolved", status: new(transaction.StatusResolved)},
		{label: "Extracted", status: new(transaction.StatusExtracted)},
	}

	periods = []period{
		{label: "Last 7 days", days: 7},
		{label: "Last 30 days", days: 30},
		{label: "Everything"},
	}

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("205")).Underline(true)
	debitStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	creditStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	panelStyle     = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(52)
)

// LedgerModel lists the user's recorded transactions with the SMS each one
// came from.
type LedgerModel struct {
	CommonModel
	txService *transaction.Service

	rows    table.Model
	txs     []*transaction.Transaction
	confirm *huh.Form

	tab        int
	period     int
	showDetail bool

	loading bool
	err     error
	notice  string
}

func NewLedgerModel(txSvc *transaction.Service, userID string) LedgerModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 13},
			{Title: "Amount", Width: 13},
			{Title: "Merchant", Width: 24},
			{Title: "Category", Width: 16},
			{Title: "Via", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	styles := table.DefaultStyles()
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return LedgerModel{
		CommonModel: CommonModel{UserID: userID},
		txService:   txSvc,
		rows:        t,
		loading:     true,
	}
}

func (m LedgerModel) Title() string { return "Ledger" }

func (m LedgerModel) ShortHelp() string {
	if m.confirm != nil {
		return "y/n: confirm | Esc: cancel"
	}

	return "tab: status | p: period | enter: message | x: delete | r: reload | Esc: back"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.fetchCmd(time.Now())
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ledgerLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.txs = msg.txs
		m.rows.SetRows(ledgerRows(m.txs))

		return m, nil

	case ledgerDeletedMsg:
		m.confirm = nil
		m.rows.Focus()

		if msg.err != nil {
			m.notice = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}

		m.notice = "Deleted " + msg.name

		return m, m.fetchCmd(time.Now())

	case tea.WindowSizeMsg:
		m.rows.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.rows, cmd = m.rows.Update(msg)

		return m, cmd
	}

	switch key.String() {
	case "esc":
		if m.showDetail {
			m.showDetail = false
			return m, nil
		}

		return m, Back
	case "tab":
		m.tab = (m.tab + 1) % len(statusTabs)
		m.loading = true

		return m, m.fetchCmd(time.Now())
	case "p":
		m.period = (m.period + 1) % len(periods)
		m.loading = true

		return m, m.fetchCmd(time.Now())
	case "r":
		m.loading = true
		return m, m.fetchCmd(time.Now())
	case "enter":
		m.showDetail = !m.showDetail
		return m, nil
	case "x":
		if m.selected() == nil {
			return m, nil
		}

		m.confirm = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Key("delete").
				Title("Delete this transaction?").
				Affirmative("Delete").
				Negative("Keep"),
		)).WithShowHelp(false)
		m.rows.Blur()

		return m, m.confirm.Init()
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)

	return m, cmd
}

func (m LedgerModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.confirm = nil
		m.rows.Focus()

		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	if m.confirm.State != huh.StateCompleted {
		return m, cmd
	}

	tx := m.selected()
	if !m.confirm.GetBool("delete") || tx == nil {
		m.confirm = nil
		m.rows.Focus()

		return m, nil
	}

	return m, m.deleteCmd(tx)
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tabs := make([]string, 0, len(statusTabs)+1)
	for i, t := range statusTabs {
		style := tabStyle
		if i == m.tab {
			style = activeTabStyle
		}

		tabs = append(tabs, style.Render(t.label))
	}

	tabs = append(tabs, tabStyle.Render("· "+periods[m.period].label))

	out, in := totals(m.txs)
	summary := fmt.Sprintf("%d transactions   spent %s   received %s",
		len(m.txs), debitStyle.Render(out), creditStyle.Render(in))

	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		m.rows.View(),
		"",
		lipgloss.NewStyle().Faint(true).Render(summary),
	)

	switch {
	case m.confirm != nil:
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panelStyle.Render(m.confirm.View()))
	case m.showDetail:
		if tx := m.selected(); tx != nil {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, panelStyle.Render(detail(tx)))
		}
	}

	if m.notice != "" {
		body = lipgloss.NewStyle().Faint(true).Render(m.notice) + "\n" + body
	}

	return lipgloss.NewStyle().Padding(1).Render(body)
}

func (m LedgerModel) selected() *transaction.Transaction {
	i := m.rows.Cursor()
	if i < 0 || i >= len(m.txs) {
		return nil
	}

	return m.txs[i]
}

// filterAt builds the list query for the active tab and period.
func (m LedgerModel) filterAt(now time.Time) transaction.ListFilter {
	f := transaction.ListFilter{
		UserID: m.UserID,
		Status: statusTabs[m.tab].status,
	}

	if days := periods[m.period].days; days > 0 {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		f.StartDate = new(today.AddDate(0, 0, 1-days))
		f.EndDate = new(now)
	}

	return f
}

func ledgerRows(txs []*transaction.Transaction) []table.Row {
	rows := make([]table.Row, len(txs))
	for i, tx := range txs {
		name := tx.Name
		if tx.Status == transaction.StatusAwaitingInput {
			name = "? " + name
		}

		rows[i] = table.Row{
			tx.Date.Format("02 Jan 15:04"),
			signedAmount(tx),
			name,
			tx.Category,
			tx.Sender,
		}
	}

	return rows
}

func signedAmount(tx *transaction.Transaction) string {
	if tx.Type == transaction.TypeCredit {
		return "+" + FormatAmount(tx.Amount, tx.Currency)
	}

	return "-" + FormatAmount(tx.Amount, tx.Currency)
}

// totals sums debits and credits per currency.
func totals(txs []*transaction.Transaction) (spent, received string) {
	out := map[string]int64{}
	in := map[string]int64{}

	for _, tx := range txs {
		if tx.Type == transaction.TypeCredit {
			in[tx.Currency] += tx.Amount
		} else {
			out[tx.Currency] += tx.Amount
		}
	}

	return joinTotals(out), joinTotals(in)
}

func joinTotals(sums map[string]int64) string {
	if len(sums) == 0 {
		return FormatAmount(0, transaction.DefaultCurrency)
	}

	currencies := make([]string, 0, len(sums))
	for c := range sums {
		currencies = append(currencies, c)
	}

	sort.Strings(currencies)

	parts := make([]string, len(currencies))
	for i, c := range currencies {
		parts[i] = FormatAmount(sums[c], c)
	}

	return strings.Join(parts, " + ")
}

func detail(tx *transaction.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", lipgloss.NewStyle().Bold(true).Render(tx.Name), signedAmount(tx))
	fmt.Fprintf(&b, "%s · %s\n\n", tx.Date.Format("Mon 02 Jan 2006 15:04"), tx.Status)

	if tx.ReferenceNumber != "" {
		fmt.Fprintf(&b, "Ref: %s\n", tx.ReferenceNumber)
	}

	if tx.Description != "" {
		fmt.Fprintf(&b, "Note: %s\n", tx.Description)
	}

	fmt.Fprintf(&b, "\nFrom %s:\n%s", tx.Sender, tx.RawMessage)

	return b.String()
}

type ledgerLoadedMsg struct {
	txs []*transaction.Transaction
	err error
}

type ledgerDeletedMsg struct {
	name string
	err  error
}

func (m LedgerModel) fetchCmd(now time.Time) tea.Cmd {
	filter := m.filterAt(now)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return ledgerLoadedMsg{txs: txs, err: err}
	}
}

func (m LedgerModel) deleteCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return ledgerDeletedMsg{name: tx.Name, err: m.txService.Delete(ctx, tx.ID)}
	}
}
