package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/credential"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/share"
	"github.com/nhle/novelstudio/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary        ConfigMode = iota // Show current share settings
	ModeForm                             // Edit share settings
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the settings after they were written.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Name string
	Err  error
}

type configSavedInternalMsg struct {
	err error
}

// Validator tests an IMAP account. It is swapped out in tests.
type Validator func(ctx context.Context, cfg model.ShareConfig, password string) (string, error)

// IMAPValidator logs in to the configured server.
func IMAPValidator(ctx context.Context, cfg model.ShareConfig, password string) (string, error) {
	return share.NewIMAPClientFromConfig(cfg, password).Validate(ctx)
}

// fields are the form bindings; the form keeps pointers to them.
type fields struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	mailbox  string
	from     string
	wrap     string
}

// Model is the Bubble Tea model for the share and display settings.
type Model struct {
	mode     ConfigMode
	cfg      model.AppConfig
	path     string
	keys     *keys.KeyMap
	validate Validator
	form     *huh.Form
	f        *fields
	spinner  spinner.Model

	validName  string
	validError error
	statusMsg  string

	width  int
	height int
}

// New creates a settings view that writes cfg to path.
func New(cfg model.AppConfig, path string, validate Validator, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if validate == nil {
		validate = IMAPValidator
	}
	return Model{
		mode:     ModeSummary,
		cfg:      cfg,
		path:     path,
		keys:     k,
		validate: validate,
		f:        &fields{},
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Editing reports whether a form owns the keyboard.
func (m Model) Editing() bool {
	return m.mode == ModeForm
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		m.validName = msg.Name
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case configSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			m.mode = ModeSummary
			return m, nil
		}
		m.statusMsg = "Settings saved"
		m.mode = ModeValidating
		cfg := m.cfg
		return m, tea.Batch(
			m.spinner.Tick,
			m.testConnection(),
			func() tea.Msg { return ConfigSavedMsg{Config: cfg} },
		)

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)

	case ModeValidating:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeSummary
		}
		return m, nil

	case ModeValidateResult:
		switch {
		case msg.String() == "r":
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.testConnection())
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Select):
			m.mode = ModeSummary
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	case msg.String() == "e":
		m.loadFields()
		m.form = m.buildForm()
		m.mode = ModeForm
		return m, m.form.Init()
	case msg.String() == "t":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.testConnection())
	}
	return m, nil
}

func (m *Model) loadFields() {
	s := m.cfg.Share
	port := s.IMAPPort
	if port == 0 {
		port = 993
	}
	*m.f = fields{
		host:     s.IMAPHost,
		port:     strconv.Itoa(port),
		username: s.Username,
		tls:      s.TLS,
		mailbox:  s.Mailbox,
		from:     s.From,
		wrap:     strconv.Itoa(m.cfg.Display.WrapWidth),
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Description("Server that receives manuscript drafts").
				Placeholder("imap.example.com").
				Value(&m.f.host).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.f.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("writer@example.com").
				Value(&m.f.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.f.password),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.f.tls),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Mailbox").
				Placeholder(share.DefaultMailbox).
				Value(&m.f.mailbox),
			huh.NewInput().
				Title("From").
				Placeholder("Writer <writer@example.com>").
				Value(&m.f.from),
			huh.NewInput().
				Title("Manuscript wrap width").
				Placeholder("80").
				Value(&m.f.wrap).
				Validate(validatePort),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.save()
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

func (m Model) save() (Model, tea.Cmd) {
	f := *m.f
	port, _ := strconv.Atoi(strings.TrimSpace(f.port))
	wrap, _ := strconv.Atoi(strings.TrimSpace(f.wrap))

	m.cfg.Share = model.ShareConfig{
		IMAPHost: strings.TrimSpace(f.host),
		IMAPPort: port,
		Username: strings.TrimSpace(f.username),
		TLS:      f.tls,
		Mailbox:  strings.TrimSpace(f.mailbox),
		From:     strings.TrimSpace(f.from),
	}
	m.cfg.Display.WrapWidth = wrap
	m.f.password = ""

	cfg, path := m.cfg, m.path
	return m, func() tea.Msg {
		if f.password != "" {
			if err := credential.Set(credential.KeyIMAPPassword, f.password); err != nil {
				return configSavedInternalMsg{err: fmt.Errorf("saving password: %w", err)}
			}
		}
		if path == "" {
			return configSavedInternalMsg{}
		}
		return configSavedInternalMsg{err: model.SaveConfig(path, &cfg)}
	}
}

func (m Model) testConnection() tea.Cmd {
	cfg, validate := m.cfg.Share, m.validate
	return func() tea.Msg {
		password, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			return ValidateResultMsg{Err: fmt.Errorf("no IMAP password stored: %w", err)}
		}
		name, err := validate(context.Background(), cfg, password)
		return ValidateResultMsg{Name: name, Err: err}
	}
}

// View renders the settings view.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.viewForm()
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return m.viewSummary()
	}
}

func (m Model) viewSummary() string {
	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	s := m.cfg.Share
	row := func(label, value string) {
		if value == "" {
			value = theme.DimmedStyle.Render("not set")
		}
		b.WriteString(theme.ListItemStyle.Render(fmt.Sprintf("%-14s %s", label, value)))
		b.WriteString("\n")
	}
	server := ""
	if s.IMAPHost != "" {
		server = fmt.Sprintf("%s:%d", s.IMAPHost, s.IMAPPort)
	}
	row("IMAP server", server)
	row("Username", s.Username)
	row("TLS", strconv.FormatBool(s.TLS))
	row("Mailbox", s.Mailbox)
	row("From", s.From)
	row("Wrap width", strconv.Itoa(m.cfg.Display.WrapWidth))

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render("e edit | t test connection | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

func (m Model) viewValidating() string {
	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(content)
}

func (m Model) viewValidateResult() string {
	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
		content = okStyle.Render("Connection successful") + "\n\n" +
			fmt.Sprintf("Authenticated as: %s", m.validName) + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back")
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a number is required")
	}
	for _, c := range strings.TrimSpace(s) {
		if c < '0' || c > '9' {
			return fmt.Errorf("must be a number")
		}
	}
	return nil
}
