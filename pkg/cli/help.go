package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

const indentUnit = 4

func indentAt(level int) string { return strings.Repeat(" ", indentUnit*level) }

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	FlagSet     *FlagSet
	Action      func(args []string) error

	Stdout io.Writer
	Stderr io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run parses arguments and calls Action with the positional ones. Parse
// errors print the short usage page to Stderr.
func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(a.Stderr, err)
		a.writeUsage(a.Stderr)
		return err
	}
	if help {
		a.writeHelp(a.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

// row is one line of a flag table: how the flag is spelled, what it does
// and a marker on the right (the default value, or |x| / |-| for groups).
type row struct{ left, usage, right string }

type section struct {
	title       string
	description string
	head        []row // printed before subtitle, never carry a marker
	subtitle    string
	rows        []row
}

// table lays sections out with one shared column width so the options and
// every group line up.
type table struct {
	sections   []section
	termWidth  int
	leftWidth  int
	usageWidth int
}

func newTable(termWidth int, sections ...section) *table {
	t := &table{sections: sections, termWidth: termWidth}
	for _, s := range sections {
		for _, rows := range [][]row{s.head, s.rows} {
			for _, r := range rows {
				t.leftWidth = max(t.leftWidth, len(r.left))
				t.usageWidth = max(t.usageWidth, len(r.usage))
			}
		}
	}
	return t
}

func (t *table) writeTo(sb *strings.Builder) {
	for _, s := range t.sections {
		if len(s.rows) == 0 {
			continue
		}
		fmt.Fprintf(sb, "\n%s%s\n", indentAt(1), s.title)
		if s.description != "" {
			fmt.Fprintf(sb, "%s%s\n", indentAt(2), s.description)
		}
		for _, r := range s.head {
			t.writeRow(sb, r)
		}
		if s.subtitle != "" {
			fmt.Fprintf(sb, "%s%s\n", indentAt(1), s.subtitle)
		}
		for _, r := range s.rows {
			t.writeRow(sb, r)
		}
	}
}

func (t *table) writeRow(sb *strings.Builder, r row) {
	indent := indentAt(2)
	firstWidth := max(t.termWidth-(len(indent)+t.leftWidth+1+2+len(r.right)), 10)
	lines := wrapText(r.usage, firstWidth)
	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}

	if r.right != "" {
		fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indent, t.leftWidth, r.left, min(t.usageWidth, firstWidth), first, r.right)
	} else {
		fmt.Fprintf(sb, "%s%-*s %s\n", indent, t.leftWidth, r.left, first)
	}
	pad := strings.Repeat(" ", t.leftWidth+1)
	for _, l := range lines[min(1, len(lines)):] {
		fmt.Fprintf(sb, "%s%s%s\n", indent, pad, l)
	}
}

func (a *App) writeUsage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	newTable(getTerminalWidth(), a.optionSection()).writeTo(&sb)
	fmt.Fprintf(&sb, "\nRun '%s --help' for all available options and flags.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

func (a *App) writeHelp(w io.Writer) {
	var sb strings.Builder
	width := getTerminalWidth()

	years := strconv.Itoa(time.Now().Year())
	if a.Since != 0 && strconv.Itoa(a.Since) != years {
		years = strconv.Itoa(a.Since) + "-" + years
	}
	fmt.Fprintf(&sb, "\n%sCopyright (c) %s: %s\n", indentAt(1), years, strings.Join(a.Authors, ", ")+" and contributors")
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indentAt(1), a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indentAt(1), indentAt(2), a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n", indentAt(1))
		for _, line := range wrapText(a.Description, width-len(indentAt(2))) {
			fmt.Fprintf(&sb, "%s%s\n", indentAt(2), line)
		}
	}

	sections := append([]section{a.optionSection()}, a.FlagSet.groupSections()...)
	newTable(width, sections...).writeTo(&sb)
	fmt.Fprint(w, sb.String())
}

// optionSection lists the flags that belong to no group, sorted by name.
func (a *App) optionSection() section {
	grouped := make(map[string]bool)
	for _, g := range a.FlagSet.flagGroups {
		for _, e := range g.Flags {
			grouped[e.Prefix+e.Name] = true
			grouped[e.Prefix+"no-"+e.Name] = true
		}
	}

	var flags []*Flag
	for _, f := range a.FlagSet.flags {
		if !grouped[f.Name] {
			flags = append(flags, f)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })

	s := section{title: "Options"}
	for _, f := range flags {
		r := row{left: spelling(f), usage: f.Usage}
		if !f.isBool() && f.DefValue != "" && f.DefValue != "0" {
			r.right = "|" + f.DefValue + "|"
		}
		s.rows = append(s.rows, r)
	}
	return s
}

// groupSections renders every flag group, sorted by group name, with its
// entries sorted by name and marked |x| when enabled.
func (f *FlagSet) groupSections() []section {
	groups := append([]FlagGroup(nil), f.flagGroups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	var out []section
	for _, g := range groups {
		if len(g.Flags) == 0 {
			continue
		}
		kind, prefix := g.GroupType, g.Flags[0].Prefix
		if kind == "" {
			kind = "flag"
		}
		s := section{
			title:       g.Name,
			description: g.Description,
			subtitle:    g.AvailableFlagsHeader,
			head: []row{
				{left: fmt.Sprintf("-%s<%s>", prefix, kind), usage: "Enable a specific " + kind},
				{left: fmt.Sprintf("-%sno-<%s>", prefix, kind), usage: "Disable a specific " + kind},
			},
		}
		entries := append([]FlagGroupEntry(nil), g.Flags...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			mark := "|-|"
			if e.Enabled != nil && *e.Enabled && (e.Disabled == nil || !*e.Disabled) {
				mark = "|x|"
			}
			s.rows = append(s.rows, row{left: e.Name, usage: e.Usage, right: mark})
		}
		out = append(out, s)
	}
	return out
}

// spelling is how a flag is written in the tables, e.g.
// "-o <file>, --output <file>" or "--large-constant=n".
func spelling(f *Flag) string {
	var sb strings.Builder
	arg := ""
	if !f.isBool() && f.ExpectedType != "" {
		arg = " <" + f.ExpectedType + ">"
	}
	if f.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s%s, --%s%s", f.Shorthand, arg, f.Name, arg)
		return sb.String()
	}
	sb.WriteString("--" + f.Name)
	if arg != "" {
		sb.WriteString("=" + f.ExpectedType)
	}
	return sb.String()
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 20)
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+len(word)+1 > maxWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	return append(lines, line.String())
}
