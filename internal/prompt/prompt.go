// Package prompt asks for missing settings with interactive terminal forms.
package prompt

import (
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/Tiliavir/syncro-import/internal/model"
)

// ErrNotInteractive is returned when a form would be needed but stdin is
// not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// ErrAborted is returned when the user cancels a form.
var ErrAborted = errors.New("aborted by user")

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func run(form *huh.Form) error {
	if !Interactive() {
		return ErrNotInteractive
	}
	if err := form.WithTheme(huh.ThemeBase()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// Credentials asks for the Syncro subdomain and API key. Values already set
// are offered as the initial input.
func Credentials(subdomain, apiKey *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Syncro subdomain").
				Description("The <name> in https://<name>.syncromsp.com").
				Value(subdomain).
				Validate(notBlank("subdomain")),
			huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(apiKey).
				Validate(notBlank("API key")),
		),
	)
	if err := run(form); err != nil {
		return err
	}
	*subdomain = strings.TrimSpace(*subdomain)
	*apiKey = strings.TrimSpace(*apiKey)
	return nil
}

// TicketDefaults asks for the values used when a ticket CSV leaves a field
// blank. Choices come from the cached reference data.
func TicketDefaults(d *model.TicketDefaults, ref *model.Reference) error {
	if ref == nil {
		ref = &model.Reference{}
	}
	customers := make([]string, 0, len(ref.Customers))
	for _, c := range ref.Customers {
		customers = append(customers, c.BusinessName)
	}
	techs := make([]string, 0, len(ref.Techs))
	for _, t := range ref.Techs {
		techs = append(techs, t.Name)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default customer").
				Options(Options(customers)...).
				Height(10).
				Value(&d.Customer),
			huh.NewInput().
				Title("Default contact").
				Value(&d.Contact),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default status").
				Options(Options(ref.Statuses)...).
				Value(&d.Status),
			huh.NewSelect[string]().
				Title("Default issue type").
				Options(Options(ref.IssueTypes)...).
				Value(&d.IssueType),
			huh.NewSelect[string]().
				Title("Default priority").
				Options(
					huh.NewOption("Urgent", "urgent"),
					huh.NewOption("High", "high"),
					huh.NewOption("Normal (default)", "normal"),
					huh.NewOption("Low", "low"),
				).
				Value(&d.Priority),
			huh.NewSelect[string]().
				Title("Default assignee").
				Options(Options(techs)...).
				Value(&d.Assignee),
			huh.NewInput().
				Title("Default created date").
				Description("Used for tickets without a created date; blank means now").
				Value(&d.CreatedAt),
		),
	)
	return run(form)
}

// Options builds sorted, de-duplicated select options from names. The
// first option is always an empty "(none)" choice.
func Options(names []string) []huh.Option[string] {
	seen := make(map[string]struct{}, len(names))
	uniq := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, n)
	}
	sort.Slice(uniq, func(i, j int) bool { return strings.ToLower(uniq[i]) < strings.ToLower(uniq[j]) })

	opts := make([]huh.Option[string], 0, len(uniq)+1)
	opts = append(opts, huh.NewOption("(none)", ""))
	for _, n := range uniq {
		opts = append(opts, huh.NewOption(n, n))
	}
	return opts
}
