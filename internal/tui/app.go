// Package tui is the terminal console for a running wppdesk daemon.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/client"
	"github.com/matheus3301/wppdesk/internal/tui/keys"
	"github.com/matheus3301/wppdesk/internal/tui/model"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/matheus3301/wppdesk/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	rpcTimeout     = 10 * time.Second
	watchRetry     = 2 * time.Second
	tickInterval   = time.Second
	headerHeight   = 6
	promptHeight   = 3
	refreshBacklog = 1
)

var pageLabels = map[string]string{
	views.PageConversations: "Conversations",
	views.PageMessages:      "Messages",
	views.PageDetails:       "Details",
	views.PageSearch:        "Search",
	views.PageHelp:          "Help",
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	daemon   *client.Client
	vm       *model.ViewModel
	flash    *model.Flash
	registry *keys.Registry

	body     *tview.Flex
	pages    *ui.Pages
	prompt   *ui.Prompt
	info     *ui.ProfileInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar
	status   *views.StatusBar

	list    *views.ConversationList
	thread  *views.MessageThread
	details *views.ConversationInfo
	search  *views.SearchView
	help    *views.HelpView

	promptOn  bool
	refreshCh chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the console for profile, talking to the daemon through c.
func NewApp(c *client.Client, profile string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		daemon:    c,
		vm:        model.NewViewModel(c),
		flash:     model.NewFlash(),
		registry:  keys.NewRegistry(),
		pages:     ui.NewPages(),
		prompt:    ui.NewPrompt(theme),
		info:      ui.NewProfileInfo(theme),
		menu:      ui.NewMenu(theme),
		crumbs:    ui.NewCrumbs(theme, func(p string) string { return pageLabels[p] }),
		flashBar:  ui.NewFlashBar(theme),
		status:    views.NewStatusBar(theme),
		list:      views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		details:   views.NewConversationInfo(theme),
		help:      views.NewHelpView(theme),
		refreshCh: make(chan struct{}, refreshBacklog),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.search = views.NewSearchView(theme, a.conversationName)
	a.info.Update(ui.ProfileData{Profile: profile})

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	r := a.registry
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true, Handler: func() { a.openPrompt(ui.PromptCommand) }})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true, Handler: func() { a.pages.Push(views.PageHelp) }})
	r.AddGlobal(&keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Handler: a.back})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true, Handler: func() {
		if a.pages.Depth() > 1 {
			a.back()
			return
		}
		a.Stop()
	}})

	list := views.PageConversations
	r.AddView(list, &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true, Handler: func() { a.open(a.list.SelectedID()) }})
	r.AddView(list, &keys.Action{Key: tcell.KeyRune, Rune: '/', Description: "Filter", Visible: true, Handler: func() { a.openPrompt(ui.PromptFilter) }})
	r.AddView(list, &keys.Action{Key: tcell.KeyRune, Rune: 'r', Description: "Refresh", Visible: true, Handler: a.requestRefresh})
	r.AddView(list, &keys.Action{Key: tcell.KeyRune, Rune: '0', Label: "0", Description: "All", Visible: true, Numeric: true, Handler: func() { a.applyFilter("") }})
	for n := 1; n <= 9; n++ {
		row := n
		r.AddView(list, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n), Label: "1-9", Description: "Jump",
			Visible: n == 1, Numeric: true,
			Handler: func() { a.open(a.list.IDAt(row)) },
		})
	}

	msgs := views.PageMessages
	r.AddView(msgs, &keys.Action{Key: tcell.KeyRune, Rune: 'i', Description: "Reply", Visible: true, Handler: func() { a.app.SetFocus(a.thread.Composer()) }})
	r.AddView(msgs, &keys.Action{Key: tcell.KeyRune, Rune: 'd', Description: "Details", Visible: true, Handler: a.showDetails})
	r.AddView(msgs, &keys.Action{Key: tcell.KeyRune, Rune: 's', Description: "Search", Visible: true, Handler: func() { a.showSearch("") }})
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.registry.Hints(a.pages.Current()))
		a.focusCurrent()
	})

	a.thread.SetOnSend(a.sendText)
	a.search.SetOnQuery(a.runSearch)
	a.search.SetOnSelect(func(hit api.SearchHit) { a.open(hit.ConversationID) })

	a.prompt.SetOnChange(func(text string) { a.applyFilter(text) })
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func(mode ui.PromptMode) {
		if mode == ui.PromptFilter {
			a.applyFilter("")
		}
		a.closePrompt()
	})
}

func (a *App) setupLayout() {
	for _, c := range []ui.Component{a.list, a.thread, a.details, a.search, a.help} {
		a.pages.Add(c)
	}

	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(ui.NewLogo(a.theme), 24, 0, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.status, 1, 0, false)

	a.app.SetRoot(a.body, true)
	a.app.SetInputCapture(a.handleKey)
	a.pages.Reset(views.PageConversations)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if a.promptOn {
		return ev
	}
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		if ev.Key() == tcell.KeyEscape {
			a.back()
			return nil
		}
		return ev
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

// back leaves the composer or search input first, then pops a page.
func (a *App) back() {
	switch focus := a.app.GetFocus(); {
	case focus == a.thread.Composer():
		a.app.SetFocus(a.thread.Messages())
		return
	case focus == a.search.Input() && a.search.Results().GetRowCount() > 1:
		a.app.SetFocus(a.search.Results())
		return
	}
	a.pages.Pop()
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case views.PageConversations:
		a.app.SetFocus(a.list)
	case views.PageMessages:
		a.app.SetFocus(a.thread.Messages())
	case views.PageDetails:
		a.app.SetFocus(a.details)
	case views.PageSearch:
		a.app.SetFocus(a.search.Input())
	case views.PageHelp:
		a.app.SetFocus(a.help)
	}
}

func (a *App) openPrompt(mode ui.PromptMode) {
	text := ""
	if mode == ui.PromptFilter {
		text = a.vm.Filter()
	}
	a.prompt.Activate(mode, text)
	a.body.ResizeItem(a.prompt, promptHeight, 0)
	a.promptOn = true
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.promptOn = false
	a.body.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push(views.PageHelp)
	case "refresh":
		a.requestRefresh()
	case "filter":
		a.pages.Reset(views.PageConversations)
		a.applyFilter(cmd.Args)
	case "search":
		a.showSearch(cmd.Args)
	case "open":
		id, ok := a.vm.Resolve(cmd.Args)
		if !ok {
			a.flash.Warn(fmt.Sprintf("No conversation matches %q", cmd.Args))
			return
		}
		a.open(id)
	case "template":
		fields := cmd.Fields()
		if len(fields) == 0 {
			a.flash.Warn("Usage: :template <name> key=value ...")
			return
		}
		a.sendTemplate(fields[0], fields[1:])
	case "":
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q", cmd.Name))
	}
}

func (a *App) applyFilter(q string) {
	a.vm.SetFilter(q)
	a.render()
}

func (a *App) showSearch(q string) {
	a.pages.Push(views.PageSearch)
	if q != "" {
		a.search.SetQuery(q)
		a.runSearch(q)
	}
}

func (a *App) showDetails() {
	if _, ok := a.vm.Active(); !ok {
		return
	}
	a.render()
	a.pages.Push(views.PageDetails)
}

// open selects id on the daemon and shows its transcript.
func (a *App) open(id string) {
	if id == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		defer cancel()
		if err := a.vm.Open(ctx, id); err != nil {
			a.flash.Err(fmt.Errorf("open %s: %w", id, err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.render()
			a.pages.Reset(views.PageConversations)
			a.pages.Push(views.PageMessages)
		})
	}()
}

func (a *App) sendText(text string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout+30*time.Second)
		defer cancel()
		if _, err := a.vm.SendText(ctx, text); err != nil {
			a.flash.Err(err)
		}
		a.requestRefresh()
	}()
}

func (a *App) sendTemplate(name string, args []string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout+30*time.Second)
		defer cancel()
		if _, err := a.vm.SendTemplate(ctx, name, args); err != nil {
			a.flash.Err(err)
		} else {
			a.flash.Info("Template " + name + " sent")
		}
		a.requestRefresh()
	}()
}

func (a *App) runSearch(q string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		defer cancel()
		hits, err := a.vm.Search(ctx, q)
		if err != nil {
			a.flash.Err(fmt.Errorf("search: %w", err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.search.Update(hits)
			if len(hits) > 0 {
				a.app.SetFocus(a.search.Results())
			}
		})
	}()
}

func (a *App) conversationName(id string) string {
	snap := a.vm.Snapshot()
	for _, s := range snap.Summaries {
		if s.ID == id && s.Name != "" {
			return s.Name
		}
	}
	return id
}

// render copies the view model into every widget. It must run on the UI
// goroutine.
func (a *App) render() {
	snap := a.vm.Snapshot()
	active, _ := a.vm.Active()

	a.list.Update(a.vm.Visible(), snap.ActiveID, a.vm.Filter(), len(snap.Summaries))
	a.thread.Update(active, snap.Transcript)
	if a.pages.Current() == views.PageDetails {
		a.details.Update(active, snap.Transcript)
	}
	a.status.Update(snap)

	var since time.Time
	if snap.ConnectivitySinceUnixMs > 0 {
		since = time.UnixMilli(snap.ConnectivitySinceUnixMs)
	}
	a.info.Update(ui.ProfileData{
		Profile:       snap.Profile,
		Connectivity:  snap.Connectivity,
		Since:         since,
		InitError:     snap.InitError,
		Source:        snap.Source,
		Conversations: len(snap.Summaries),
		Cached:        snap.CachedMessages,
		Pending:       len(snap.Pending),
		Uptime:        time.Duration(snap.UptimeMs) * time.Millisecond,
	})
}

func (a *App) requestRefresh() {
	select {
	case a.refreshCh <- struct{}{}:
	default:
	}
}

// refreshLoop fetches a snapshot per refresh request; bursts of events
// collapse into one fetch.
func (a *App) refreshLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.refreshCh:
		}
		ctx, cancel := context.WithTimeout(a.ctx, rpcTimeout)
		err := a.vm.Refresh(ctx)
		cancel()
		if err != nil {
			if a.ctx.Err() == nil {
				a.flash.Err(fmt.Errorf("refresh: %w", err))
			}
			continue
		}
		a.app.QueueUpdateDraw(a.render)
	}
}

// watchLoop follows the daemon's event stream, reconnecting until the
// console exits.
func (a *App) watchLoop() {
	for {
		err := a.daemon.Watch(a.ctx, "", func(env api.EventEnvelope) error {
			if text, level, ok := model.Notice(env, a.vm.ActiveID()); ok {
				a.flash.Set(text, level)
			}
			if model.Redraws(env.Kind) {
				a.requestRefresh()
			}
			return nil
		})
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.flash.Warn("Event stream lost: " + err.Error())
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(watchRetry):
		}
		a.requestRefresh()
	}
}

// tickLoop keeps the clock and flash bar current.
func (a *App) tickLoop() {
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.flash.Watch():
		case <-t.C:
		}
		a.app.QueueUpdateDraw(func() {
			a.flashBar.Update(a.flash.Message())
			a.status.Tick()
		})
	}
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	defer a.cancel()
	go a.refreshLoop()
	go a.watchLoop()
	go a.tickLoop()
	a.requestRefresh()
	return a.app.Run()
}

// Stop shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
