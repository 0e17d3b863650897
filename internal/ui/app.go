package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/open"
	"github.com/worklens/worklens/internal/remote"
	"github.com/worklens/worklens/internal/search"
	"github.com/worklens/worklens/internal/statedb"
	"github.com/worklens/worklens/internal/store"
)

// Minimum terminal size before we give up on layout.
const (
	minTerminalWidth  = 60
	minTerminalHeight = 12
)

// busyState is the single guard for long-running remote operations. Only
// one of them may run at a time; key handlers check it before launching.
type busyState int

const (
	busyNone busyState = iota
	busyLoadingQueries
	busyExpanding
	busyDownloading
)

func (b busyState) String() string {
	switch b {
	case busyLoadingQueries:
		return "loading queries"
	case busyExpanding:
		return "expanding folder"
	case busyDownloading:
		return "downloading"
	default:
		return "idle"
	}
}

// focusArea tracks which pane receives navigation keys.
type focusArea int

const (
	focusTree focusArea = iota
	focusSearch
	focusResults
)

// Options wires the app to its collaborators. State may be nil when the
// state database could not be opened; selection persistence is then skipped.
type Options struct {
	Config        *config.Config
	Client        *remote.Client
	Store         *store.Store
	State         *statedb.StateDB
	ConfigReloads <-chan *config.Config
	Version       string
}

// Messages
type queriesLoadedMsg struct {
	roots []*remote.QueryNode
	err   error
}

type subtreeLoadedMsg struct {
	node *remote.QueryNode
	err  error
}

type downloadTickMsg struct {
	fraction float64
}

type downloadDoneMsg struct {
	node  *remote.QueryNode
	count int
	err   error
}

// resultsMsg carries one complete scan result. The table is replaced
// wholesale, so observers never see a half-updated list.
type resultsMsg struct {
	result search.Result
}

type themeChangedMsg struct {
	dark bool
}

type configReloadedMsg struct {
	cfg *config.Config
}

// App is the root bubbletea model: query tree on the left, search input
// and results table on the right.
type App struct {
	opts Options

	width  int
	height int

	tree        *Tree
	results     *Results
	input       textinput.Model
	filterInput textinput.Model
	progressBar progress.Model
	help        *HelpOverlay

	controller *search.Controller

	busy            busyState
	focus           focusArea
	filtering       bool
	includeHistory  bool
	progressFrac    float64
	downloadingName string

	lastInputText string

	status string
	err    error

	themeWatcher *ThemeWatcher

	ctx    context.Context
	cancel context.CancelFunc
	send   func(tea.Msg)
}

// NewApp builds the root model from its collaborators.
func NewApp(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "Search work items..."
	input.CharLimit = 200

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter queries..."
	filterInput.CharLimit = 100

	a := &App{
		opts:           opts,
		tree:           NewTree(),
		results:        NewResults(),
		input:          input,
		filterInput:    filterInput,
		progressBar:    progress.New(progress.WithDefaultGradient()),
		help:           NewHelpOverlay(),
		includeHistory: opts.Config.Download.IncludeHistory,
		ctx:            ctx,
		cancel:         cancel,
	}
	a.controller = search.NewController(opts.Store, func(r search.Result) {
		a.sendMsg(resultsMsg{result: r})
	})

	if opts.Config.Theme == "system" {
		a.themeWatcher = NewThemeWatcher(ctx)
	}
	return a
}

// SetSender wires the bubbletea program's Send function so background
// work (progress callbacks, scan publications) can reach Update. Must be
// called before the program runs.
func (a *App) SetSender(send func(tea.Msg)) {
	a.send = send
}

func (a *App) sendMsg(msg tea.Msg) {
	if a.send != nil {
		a.send(msg)
	}
}

// Init starts the initial query listing and the background listeners.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.startLoadQueries()}
	if a.themeWatcher != nil {
		cmds = append(cmds, listenForThemeChanges(a.themeWatcher))
	}
	if a.opts.ConfigReloads != nil {
		cmds = append(cmds, listenForConfigReloads(a.opts.ConfigReloads))
	}
	return tea.Batch(cmds...)
}

// beginBusy transitions the operation guard from idle into op. Returns
// false and leaves a status note when another operation is running.
func (a *App) beginBusy(op busyState) bool {
	if a.busy != busyNone {
		a.status = fmt.Sprintf("%s in progress, please wait", a.busy)
		return false
	}
	a.busy = op
	a.status = ""
	a.err = nil
	return true
}

func (a *App) startLoadQueries() tea.Cmd {
	if !a.beginBusy(busyLoadingQueries) {
		return nil
	}
	client := a.opts.Client
	ctx := a.ctx
	return func() tea.Msg {
		roots, err := client.ListTopLevelQueries(ctx)
		return queriesLoadedMsg{roots: roots, err: err}
	}
}

func (a *App) startExpand(node *remote.QueryNode) tea.Cmd {
	if !a.beginBusy(busyExpanding) {
		return nil
	}
	client := a.opts.Client
	ctx := a.ctx
	return func() tea.Msg {
		err := client.RetrieveSubqueries(ctx, node)
		return subtreeLoadedMsg{node: node, err: err}
	}
}

func (a *App) startDownload(node *remote.QueryNode) tea.Cmd {
	if !a.beginBusy(busyDownloading) {
		return nil
	}
	a.progressFrac = 0
	a.downloadingName = node.Name

	client := a.opts.Client
	st := a.opts.Store
	ctx := a.ctx
	includeHistory := a.includeHistory
	return func() tea.Msg {
		err := st.Download(ctx, client, node.ID, includeHistory, func(f float64) {
			a.sendMsg(downloadTickMsg{fraction: f})
		})
		return downloadDoneMsg{node: node, count: st.Count(), err: err}
	}
}

func listenForThemeChanges(tw *ThemeWatcher) tea.Cmd {
	return func() tea.Msg {
		isDark, ok := <-tw.ChangeChannel()
		if !ok {
			return nil
		}
		return themeChangedMsg{dark: isDark}
	}
}

func listenForConfigReloads(ch <-chan *config.Config) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{cfg: cfg}
	}
}

// Update is the message loop.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case queriesLoadedMsg:
		a.busy = busyNone
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.tree.SetRoots(msg.roots)
		a.restoreSelection()
		return a, nil

	case subtreeLoadedMsg:
		a.busy = busyNone
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.tree.Refresh()
		return a, nil

	case downloadTickMsg:
		if msg.fraction > a.progressFrac {
			a.progressFrac = msg.fraction
		}
		return a, nil

	case downloadDoneMsg:
		return a.finishDownload(msg)

	case resultsMsg:
		a.results.SetRecords(msg.result.Records)
		return a, nil

	case themeChangedMsg:
		theme := "light"
		if msg.dark {
			theme = "dark"
		}
		InitTheme(theme)
		return a, listenForThemeChanges(a.themeWatcher)

	case configReloadedMsg:
		a.applyConfig(msg.cfg)
		return a, listenForConfigReloads(a.opts.ConfigReloads)
	}

	return a, nil
}

func (a *App) finishDownload(msg downloadDoneMsg) (tea.Model, tea.Cmd) {
	a.busy = busyNone
	a.downloadingName = ""
	if msg.err != nil {
		a.err = msg.err
		uiLog.Warn("download_failed",
			slog.String("query", msg.node.Name),
			slog.String("error", msg.err.Error()))
		return a, nil
	}

	a.results.SetColumns(a.opts.Store.Columns())
	a.controller.Refresh()
	a.status = fmt.Sprintf("downloaded %d work items from %q", msg.count, msg.node.Name)

	if a.opts.State != nil {
		if err := a.opts.State.SetSelectedQuery(msg.node.ID.String()); err != nil {
			uiLog.Warn("save_selection_failed", slog.String("error", err.Error()))
		}
		err := a.opts.State.RecordDownload(statedb.DownloadStat{
			QueryID:        msg.node.ID.String(),
			QueryName:      msg.node.Name,
			DownloadedAt:   time.Now(),
			RecordCount:    msg.count,
			IncludeHistory: a.includeHistory,
		})
		if err != nil {
			uiLog.Warn("save_download_stat_failed", slog.String("error", err.Error()))
		}
	}
	return a, nil
}

// restoreSelection reselects the query used in the previous session.
func (a *App) restoreSelection() {
	if a.opts.State == nil {
		return
	}
	idStr, err := a.opts.State.SelectedQuery()
	if err != nil || idStr == "" {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return
	}
	a.tree.SelectByID(id)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.opts.Config = cfg
	a.opts.Client = remote.NewClient(remote.Settings{
		URL:               cfg.Server.URL,
		Collection:        cfg.Server.Collection,
		Project:           cfg.Server.Project,
		Token:             cfg.Token(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	})
	a.includeHistory = cfg.Download.IncludeHistory
	if cfg.Theme != "system" {
		InitTheme(cfg.Theme)
	}
	a.status = "configuration reloaded"
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys first.
	switch msg.String() {
	case "ctrl+c":
		return a, a.quit()
	case "?":
		if !a.typing() {
			a.help.Toggle()
			return a, nil
		}
	case "esc":
		if a.help.IsVisible() {
			a.help.Hide()
			return a, nil
		}
	case "tab":
		a.cycleFocus()
		return a, nil
	}

	if a.help.IsVisible() {
		return a, nil
	}

	if a.filtering {
		return a.handleFilterKey(msg)
	}

	switch a.focus {
	case focusSearch:
		return a.handleSearchKey(msg)
	case focusResults:
		return a.handleResultsKey(msg)
	default:
		return a.handleTreeKey(msg)
	}
}

// typing reports whether keystrokes currently go into a text input.
func (a *App) typing() bool {
	return a.filtering || a.focus == focusSearch
}

func (a *App) cycleFocus() {
	a.filtering = false
	a.filterInput.Blur()
	switch a.focus {
	case focusTree:
		a.focus = focusSearch
		a.input.Focus()
	case focusSearch:
		a.input.Blur()
		a.focus = focusResults
	default:
		a.focus = focusTree
	}
}

func (a *App) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, a.quit()
	case "up", "k":
		a.tree.MoveUp()
	case "down", "j":
		a.tree.MoveDown()
	case "f":
		a.filtering = true
		a.filterInput.SetValue("")
		a.filterInput.Focus()
		a.tree.SetFilter("")
	case "r":
		return a, a.startLoadQueries()
	case "h":
		a.toggleHistory()
	case " ":
		return a, a.expandSelected()
	case "enter":
		node := a.tree.Selected()
		if node == nil {
			return a, nil
		}
		if node.IsFolder {
			return a, a.expandSelected()
		}
		return a, a.startDownload(node)
	case "/":
		a.focus = focusSearch
		a.input.Focus()
	}
	return a, nil
}

// expandSelected toggles the folder under the cursor and lazily loads the
// next level when a grandchild folder is still unloaded.
func (a *App) expandSelected() tea.Cmd {
	node := a.tree.ToggleSelected()
	if node == nil || !node.IsFolder {
		return nil
	}
	if a.tree.IsExpanded(node.ID) && remote.NeedsSubqueryLoad(node) {
		return a.startExpand(node)
	}
	return nil
}

func (a *App) toggleHistory() {
	a.includeHistory = !a.includeHistory
	if a.includeHistory {
		a.status = "history download on (slower, makes discussion searchable)"
	} else {
		a.status = "history download off"
	}
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.filtering = false
		a.filterInput.Blur()
		a.tree.SetFilter("")
		return a, nil
	case "up", "ctrl+k":
		a.tree.MoveUp()
		return a, nil
	case "down", "ctrl+j":
		a.tree.MoveDown()
		return a, nil
	case "enter":
		node := a.tree.Selected()
		a.filtering = false
		a.filterInput.Blur()
		if node != nil && !node.IsFolder {
			id := node.ID
			a.tree.SetFilter("")
			a.tree.SelectByID(id)
			return a, a.startDownload(node)
		}
		a.tree.SetFilter("")
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.tree.SetFilter(a.filterInput.Value())
	return a, cmd
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.input.Blur()
		a.focus = focusResults
		return a, nil
	case "enter", "down":
		a.input.Blur()
		a.focus = focusResults
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if text := a.input.Value(); text != a.lastInputText {
		a.lastInputText = text
		a.controller.SetText(text)
	}
	return a, cmd
}

func (a *App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, a.quit()
	case "up", "k":
		a.results.MoveUp()
	case "down", "j":
		a.results.MoveDown()
	case "pgup":
		a.results.PageUp()
	case "pgdown":
		a.results.PageDown()
	case "/":
		a.focus = focusSearch
		a.input.Focus()
	case "o", "enter":
		a.openSelected()
	case "y":
		a.copySelectedURL()
	}
	return a, nil
}

func (a *App) openSelected() {
	rec := a.results.Selected()
	if rec == nil {
		return
	}
	url := a.opts.Client.WorkItemURL(rec.ID())
	if err := open.Browser(url); err != nil {
		a.err = err
		return
	}
	a.status = fmt.Sprintf("opened #%d in browser", rec.ID())
}

func (a *App) copySelectedURL() {
	rec := a.results.Selected()
	if rec == nil {
		return
	}
	url := a.opts.Client.WorkItemURL(rec.ID())
	if err := open.Clipboard(url); err != nil {
		a.err = err
		return
	}
	a.status = fmt.Sprintf("copied URL for #%d", rec.ID())
}

func (a *App) quit() tea.Cmd {
	a.controller.Close()
	if a.themeWatcher != nil {
		a.themeWatcher.Close()
	}
	a.cancel()
	return tea.Quit
}

// layout distributes the window between the tree pane and the right column.
func (a *App) layout() {
	a.help.SetSize(a.width, a.height)
	if a.width < minTerminalWidth || a.height < minTerminalHeight {
		return
	}

	treeWidth := a.width * 35 / 100
	if treeWidth < 24 {
		treeWidth = 24
	}
	rightWidth := a.width - treeWidth - 6

	// Header, progress/status, search box, menu bar.
	bodyHeight := a.height - 8

	a.tree.SetSize(treeWidth, bodyHeight)
	a.results.SetSize(rightWidth, bodyHeight-3)
	a.input.Width = rightWidth - 4
	a.filterInput.Width = treeWidth - 4
	a.progressBar.Width = a.width - 30
}

// View renders the full screen.
func (a *App) View() string {
	if a.width < minTerminalWidth || a.height < minTerminalHeight {
		return fmt.Sprintf("Terminal too small (%dx%d). Need at least %dx%d.",
			a.width, a.height, minTerminalWidth, minTerminalHeight)
	}
	if a.help.IsVisible() {
		return a.help.View()
	}

	header := a.renderHeader()
	body := a.renderBody()
	status := a.renderStatusBar()
	menu := a.renderMenuBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, menu)
}

func (a *App) renderHeader() string {
	title := TitleStyle.Render("worklens")
	if a.opts.Version != "" {
		title += DimStyle.Render(" v" + a.opts.Version)
	}
	server := DimStyle.Render("  " + a.opts.Config.Server.URL + " / " + a.opts.Config.Server.Project)

	right := ""
	if a.busy != busyNone && a.busy != busyDownloading {
		right = WarningStyle.Render(a.busy.String() + "…")
	}
	if a.includeHistory {
		if right != "" {
			right += "  "
		}
		right += DimStyle.Render("[history]")
	}

	left := title + server
	pad := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + lipgloss.NewStyle().Width(pad).Render("") + right
}

func (a *App) renderBody() string {
	treeWidth := a.width * 35 / 100
	if treeWidth < 24 {
		treeWidth = 24
	}
	rightWidth := a.width - treeWidth - 6
	bodyHeight := a.height - 8

	treePanel := PanelStyle
	if a.focus == focusTree || a.filtering {
		treePanel = PanelFocusedStyle
	}
	treeContent := a.tree.View()
	if a.filtering {
		treeContent = a.filterInput.View() + "\n" + treeContent
	}
	left := treePanel.Width(treeWidth).Height(bodyHeight).Render(treeContent)

	searchBox := SearchBoxStyle
	if a.focus == focusSearch {
		searchBox = SearchBoxFocusedStyle
	}
	searchView := searchBox.Width(rightWidth).Render(a.input.View())

	resultsPanel := PanelStyle
	if a.focus == focusResults {
		resultsPanel = PanelFocusedStyle
	}
	resultsView := resultsPanel.Width(rightWidth).Height(bodyHeight - 3).Render(a.results.View())

	right := lipgloss.JoinVertical(lipgloss.Left, searchView, resultsView)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a *App) renderStatusBar() string {
	if a.busy == busyDownloading {
		label := fmt.Sprintf(" downloading %q ", a.downloadingName)
		return WarningStyle.Render(label) + a.progressBar.ViewAs(a.progressFrac)
	}
	if a.err != nil {
		return ErrorStyle.Render(" " + a.err.Error())
	}
	if a.status != "" {
		return SuccessStyle.Render(" " + a.status)
	}
	return " " + a.results.CountLine()
}

func (a *App) renderMenuBar() string {
	items := []string{
		MenuKey("enter", "download"),
		MenuKey("/", "search"),
		MenuKey("f", "filter"),
		MenuKey("o", "open"),
		MenuKey("?", "help"),
		MenuKey("q", "quit"),
	}
	bar := items[0]
	for _, item := range items[1:] {
		bar += MenuSeparatorStyle.Render("  ") + item
	}
	return MenuBarStyle.Width(a.width).Render(bar)
}
