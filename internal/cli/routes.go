package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/guard"
)

type routesOptions struct {
	role      string
	pending   bool
	anonymous bool
	loading   bool
}

func newRoutesCmd() *cobra.Command {
	var opts routesOptions

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table with the guard decision for a session",
		Example: `  storefront routes --anonymous
  storefront routes --role admin
  storefront routes --role user --pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", "user", "Role of the signed-in visitor (user|admin)")
	cmd.Flags().BoolVar(&opts.pending, "pending", false, "Visitor has an admin request awaiting approval")
	cmd.Flags().BoolVar(&opts.anonymous, "anonymous", false, "Visitor is not signed in")
	cmd.Flags().BoolVar(&opts.loading, "loading", false, "Session is still being resolved")
	cmd.MarkFlagsMutuallyExclusive("anonymous", "loading")

	return cmd
}

func (o routesOptions) session() (domain.Session, error) {
	switch {
	case o.loading:
		return domain.Loading("token"), nil
	case o.anonymous:
		return domain.Anonymous(), nil
	}
	u := &domain.User{ID: "0", Name: "cli", PendingAdmin: o.pending}
	switch o.role {
	case "user":
		u.Role = domain.RoleUser
	case "admin":
		u.Role = domain.RoleAdmin
	default:
		return domain.Session{}, fmt.Errorf("unknown role %q (want user or admin)", o.role)
	}
	return domain.Authenticated(u, "token"), nil
}

func printRoutes(out io.Writer, s domain.Session) error {
	fmt.Fprintf(out, "Session: %s\n\n", s.State())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tCLASS\tTITLE\tDECISION")
	fmt.Fprintln(w, "────\t─────\t─────\t────────")
	for _, r := range guard.Routes {
		_, d := guard.Decide(samplePath(r.Pattern), s)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Pattern, r.Class, r.Title, describe(d))
	}
	_, d := guard.Decide("/no-such-page", s)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", guard.CatchAllPattern, "-", "-", describe(d))
	return w.Flush()
}

// samplePath fills route parameters so the pattern can be matched.
func samplePath(pattern string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			b.WriteString(pattern)
			return b.String()
		}
		b.WriteString(pattern[:open])
		b.WriteString("1")
		pattern = pattern[open+end+1:]
	}
}

func describe(d guard.Decision) string {
	switch d.Outcome {
	case guard.OutcomeRender:
		return "render (" + d.Layout.String() + " layout)"
	case guard.OutcomeRedirect:
		nav := "push"
		if d.Replace {
			nav = "replace"
		}
		return "redirect " + d.Location + " (" + nav + ")"
	}
	return d.Outcome.String()
}
