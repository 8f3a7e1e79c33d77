package cmd

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"binlens/internal/analysis"
	"binlens/internal/binlens/styles"
	"binlens/internal/engine"
	"binlens/internal/errs"
	"binlens/internal/search"
)

type viewMode int

const (
	viewStrings viewMode = iota
	viewRecords
	viewSummary
)

type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptEdit
)

var (
	addrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	matchStyle   = lipgloss.NewStyle().Background(lipgloss.Color("238")).Foreground(lipgloss.Color("214"))
	currentStyle = lipgloss.NewStyle().Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type recordItem struct {
	index int
	rec   analysis.StringRecord
}

func (i recordItem) Title() string       { return fmt.Sprintf("%08x  %s", i.rec.Offset, i.rec.Text) }
func (i recordItem) Description() string { return "" }
func (i recordItem) FilterValue() string { return i.rec.Text + " " + i.rec.Demangled }

type recordDelegate struct{}

func (d recordDelegate) Height() int                               { return 1 }
func (d recordDelegate) Spacing() int                              { return 0 }
func (d recordDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d recordDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(recordItem)
	if !ok {
		return
	}

	indicator := " "
	offStyle := addrStyle
	if index == m.Index() {
		indicator = ">"
		offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}

	line := fmt.Sprintf(" %s  %s", indicator, offStyle.Render(fmt.Sprintf("%08x", i.rec.Offset)))
	if i.rec.Section != "" {
		section := i.rec.Section
		if i.rec.Address != 0 {
			section += fmt.Sprintf("@%x", i.rec.Address)
		}
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Render(section)
	}
	line += "  " + i.rec.Text
	if i.rec.Demangled != "" {
		line += lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render("  ; " + i.rec.Demangled)
	}
	fmt.Fprint(w, line)
}

type model struct {
	viewport    viewport.Model
	recordsList list.Model
	summaryView viewport.Model
	spinner     spinner.Model
	input       textinput.Model
	prompt      promptKind
	mode        viewMode
	filepath    string
	eng         *engine.Engine
	digest      string
	loading     bool
	loadErr     error
	status      string
	statusErr   bool
	dirty       bool
	width       int
	height      int
}

// Message types
type loadedMsg struct {
	eng *engine.Engine
	err error
}

type digestCalculatedMsg struct {
	digest string
}

// loadFileCmd loads path into eng, which must not be the model's engine;
// Update adopts eng once the load completes.
func loadFileCmd(eng *engine.Engine, path string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{eng: eng, err: eng.LoadFile(path)}
	}
}

func calculateDigestCmd(path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return digestCalculatedMsg{digest: fmt.Sprintf("error: %v", err)}
		}
		defer file.Close()

		hash := sha256.New()
		if _, err := io.Copy(hash, file); err != nil {
			return digestCalculatedMsg{digest: fmt.Sprintf("error: %v", err)}
		}
		return digestCalculatedMsg{digest: fmt.Sprintf("%x", hash.Sum(nil))}
	}
}

func NewModel(filepath string, eng *engine.Engine) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)

	recordsList := list.New([]list.Item{}, recordDelegate{}, 80, 22)
	recordsList.SetShowStatusBar(false)
	recordsList.SetFilteringEnabled(true)
	recordsList.Title = "Strings"
	recordsList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	recordsList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	svp := viewport.New()
	svp.SetWidth(80)
	svp.SetHeight(22)

	ti := textinput.New()
	ti.Prompt = "/"

	m := model{
		viewport:    vp,
		recordsList: recordsList,
		summaryView: svp,
		spinner:     s,
		input:       ti,
		mode:        viewStrings,
		filepath:    filepath,
		eng:         eng,
		loading:     true,
		width:       80,
		height:      24,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadFileCmd(m.eng.Fork(), m.filepath),
		calculateDigestCmd(m.filepath),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.eng != nil {
			m.eng = msg.eng
		}
		m.loadErr = msg.err
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("load failed: %v", msg.err), true)
		}
		m.updateRecordsList()
		m.updateContent()
		return m, nil

	case digestCalculatedMsg:
		m.digest = msg.digest
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateContent()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.recordsList.SetWidth(msg.Width)
			m.recordsList.SetHeight(msg.Height - 2)
			m.summaryView.SetWidth(msg.Width)
			m.summaryView.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		if m.prompt != promptNone {
			if c, handled := m.handlePromptKey(msg.String()); handled {
				return m, c
			}
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		// Let the list own the keyboard while its filter is open.
		if m.mode == viewRecords && m.recordsList.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.recordsList, cmd = m.recordsList.Update(msg)
			return m, cmd
		}

		if c, handled := m.handleKey(msg.String()); handled {
			return m, c
		}
	}

	switch m.mode {
	case viewRecords:
		m.recordsList, cmd = m.recordsList.Update(msg)
	case viewSummary:
		m.summaryView, cmd = m.summaryView.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// handleKey applies a key pressed outside of a prompt. It reports false
// when the key should fall through to the active view.
func (m *model) handleKey(key string) (tea.Cmd, bool) {
	switch key {
	case "q", "ctrl+c":
		return tea.Quit, true
	case "tab":
		m.mode = (m.mode + 1) % 3
		m.updateContent()
		return nil, true
	case "s":
		m.mode = viewStrings
		return nil, true
	case "r":
		m.mode = viewRecords
		return nil, true
	case "i":
		m.mode = viewSummary
		m.updateSummary()
		return nil, true
	}

	if m.loading || !m.eng.Loaded() {
		return nil, false
	}

	switch key {
	case "/":
		if m.mode == viewRecords {
			return nil, false
		}
		return m.openPrompt(promptSearch), true
	case "e":
		return m.openPrompt(promptEdit), true
	case "n":
		m.step(m.eng.Next())
		return nil, true
	case "N":
		m.step(m.eng.Prev())
		return nil, true
	case "w":
		return m.save(), true
	case "enter":
		if m.mode == viewRecords {
			if item, ok := m.recordsList.SelectedItem().(recordItem); ok {
				m.mode = viewStrings
				m.scrollTo(item.index)
				return nil, true
			}
		}
	case "esc":
		m.status = ""
		return nil, true
	}
	return nil, false
}

func (m *model) openPrompt(kind promptKind) tea.Cmd {
	m.prompt = kind
	m.input.Reset()
	switch kind {
	case promptSearch:
		m.input.Prompt = "/"
		m.input.Placeholder = "search strings"
		m.input.SetValue(m.eng.Term())
	case promptEdit:
		m.input.Prompt = "edit: "
		m.input.Placeholder = "float: 1.0 => 2.0"
	}
	return m.input.Focus()
}

func (m *model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
}

func (m *model) handlePromptKey(key string) (tea.Cmd, bool) {
	switch key {
	case "ctrl+c":
		return tea.Quit, true
	case "esc":
		m.closePrompt()
		return nil, true
	case "enter":
		kind := m.prompt
		value := m.input.Value()
		m.closePrompt()
		switch kind {
		case promptSearch:
			m.runSearch(value)
		case promptEdit:
			m.runEdit(value)
		}
		return nil, true
	}
	return nil, false
}

func (m *model) runSearch(term string) {
	set, err := m.eng.Search(term)
	if err != nil {
		m.setStatus(fmt.Sprintf("search: %v", err), true)
		return
	}
	m.mode = viewStrings
	if set.Len() == 0 {
		m.setStatus(fmt.Sprintf("no matches for %q", term), true)
	}
	m.step(set)
}

// step moves the view to the current match of set.
func (m *model) step(set search.MatchSet) {
	m.updateContent()
	pos, ok := set.Current()
	if !ok {
		return
	}
	m.setStatus(fmt.Sprintf("match %d/%d at %s", set.Index+1, set.Len(), pos), false)
	m.scrollTo(pos.Line - 1)
}

func (m *model) scrollTo(line int) {
	top := line - (m.height-2)/2
	if top < 0 {
		top = 0
	}
	m.viewport.SetYOffset(top)
}

// parseEditInput splits "type: value" or "type: find => with".
func parseEditInput(s string) (typeKey, find, with string, err error) {
	typeKey, rest, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", "", fmt.Errorf("%w: expected \"type: value\"", errs.ErrInvalidInput)
	}
	typeKey = strings.TrimSpace(typeKey)
	find, with, ok = strings.Cut(rest, "=>")
	if !ok {
		with = find
	}
	return typeKey, strings.TrimSpace(find), strings.TrimSpace(with), nil
}

func (m *model) runEdit(input string) {
	typeKey, find, with, err := parseEditInput(input)
	if err == nil {
		var edit engine.Edit
		edit, err = m.eng.ReplaceValue(typeKey, find, with)
		if err == nil {
			m.dirty = true
			m.setStatus(fmt.Sprintf("%s written at 0x%08x (%s -> %s)",
				edit.Kind.Key(), edit.Offset, find, with), false)
			m.updateRecordsList()
			m.updateContent()
			return
		}
	}
	switch {
	case errors.Is(err, errs.ErrValueNotFound):
		m.setStatus(fmt.Sprintf("%s %s not found", typeKey, find), true)
	default:
		m.setStatus(fmt.Sprintf("edit: %v", err), true)
	}
}

// save writes the buffer back to the loaded file and returns a command that
// rehashes it for the summary.
func (m *model) save() tea.Cmd {
	if err := m.eng.SaveFile(""); err != nil {
		m.setStatus(fmt.Sprintf("save failed: %v", err), true)
		return nil
	}
	m.dirty = false
	m.setStatus(fmt.Sprintf("saved %d bytes to %s", m.eng.Len(), m.eng.Path()), false)
	m.updateSummary()
	return calculateDigestCmd(m.eng.Path())
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewRecords:
		content = m.recordsList.View()
	case viewSummary:
		content = m.summaryView.View()
	default:
		content = m.viewport.View()
	}

	var bottom string
	switch {
	case m.prompt != promptNone:
		bottom = m.input.View()
	case m.status != "":
		style := okStyle
		if m.statusErr {
			style = errorStyle
		}
		bottom = style.Render(m.status)
	}

	var menu string
	switch m.mode {
	case viewRecords:
		menu = " Enter: jump • S: strings • I: info • Tab: cycle • Q: quit "
	case viewSummary:
		menu = " S: strings • R: records • Tab: cycle • Q: quit "
	default:
		menu = " /: search • N/n: prev/next • E: edit • W: save • Tab: cycle • Q: quit "
	}
	if m.dirty {
		menu = " [modified]" + menu
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + bottom + "\n" + menuStyle.Render(menu)
}

func (m *model) updateRecordsList() {
	records := m.eng.Records()
	items := make([]list.Item, 0, len(records))
	for i, rec := range records {
		items = append(items, recordItem{index: i, rec: rec})
	}
	m.recordsList.SetItems(items)
}

func (m *model) updateContent() {
	if m.loading {
		m.viewport.SetContent(fmt.Sprintf("%s Loading %s...", m.spinner.View(), pathpkg.Base(m.filepath)))
		return
	}
	if m.loadErr != nil {
		m.viewport.SetContent(errorStyle.Render(m.loadErr.Error()))
		return
	}
	m.viewport.SetContent(renderStrings(m.eng.Records(), m.eng.Rendered().String(), m.eng.Matches(), len(m.eng.Term())))
	m.updateSummary()
}

// renderStrings lays out the rendered text one record per line, prefixed
// with the record's offset, with every match highlighted.
func renderStrings(records []analysis.StringRecord, text string, set search.MatchSet, termLen int) string {
	if len(records) == 0 {
		return addrStyle.Render("(no strings)")
	}

	var b strings.Builder
	prev := 0
	for i, pos := range set.Positions {
		b.WriteString(text[prev:pos.Offset])
		style := matchStyle
		if i == set.Index {
			style = currentStyle
		}
		b.WriteString(styleLines(style, text[pos.Offset:pos.Offset+termLen]))
		prev = pos.Offset + termLen
	}
	b.WriteString(text[prev:])

	lines := strings.Split(b.String(), "\n")
	var out strings.Builder
	for i, line := range lines {
		if i > 0 {
			out.WriteString("\n")
		}
		if i < len(records) {
			out.WriteString(addrStyle.Render(fmt.Sprintf("%08x", records[i].Offset)))
			out.WriteString("  ")
		}
		out.WriteString(line)
	}
	return out.String()
}

// styleLines styles each line of s separately so a match spanning a line
// break does not bleed its padding into the next line.
func styleLines(style lipgloss.Style, s string) string {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = style.Render(p)
		}
	}
	return strings.Join(parts, "\n")
}

func (m *model) updateSummary() {
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("; %s", relPath))
	if m.digest != "" {
		lines = append(lines, fmt.Sprintf("; sha256 %s", m.digest))
	}
	if m.eng.Loaded() {
		lines = append(lines, fmt.Sprintf("; %d bytes", m.eng.Len()))
	}
	if img := m.eng.Image(); img != nil {
		lines = append(lines, fmt.Sprintf("; ELF %s %s %s", img.Class, img.Machine, img.Type))
		lines = append(lines, fmt.Sprintf("; %d sections with file data", len(img.Sections)))
	}

	md := fmt.Sprintf("# binlens\n\n```\n%s\n```\n", strings.Join(lines, "\n"))
	if m.eng.Loaded() {
		md += fmt.Sprintf("\n## Strings\n\n- **%d** lines of at least %d bytes\n", m.eng.Rendered().Lines(), m.eng.MinLength())
		if m.eng.Searched() {
			md += fmt.Sprintf("- **%d** matches for `%s`\n", m.eng.Matches().Len(), m.eng.Term())
		}
		if m.dirty {
			md += "- unsaved edits\n"
		}
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	rendered := styles.RenderMarkdown(md, width-2)
	m.summaryView.SetContent(strings.TrimSuffix(rendered, "\n"))
}
