package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
)

var viewNames = map[string]dashboard.View{
	"controls":     dashboard.ViewControls,
	"summary":      dashboard.ViewSummary,
	"drilldown":    dashboard.ViewDrilldown,
	"production":   dashboard.ViewProduction,
	"maintenance":  dashboard.ViewMaintenance,
	"incidents":    dashboard.ViewIncidents,
	"timeline":     dashboard.ViewTimeline,
	"day":          dashboard.ViewDay,
	"observations": dashboard.ViewObservations,
}

func names() []string {
	out := make([]string, 0, len(viewNames))
	for n := range viewNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func newViewCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "view NAME",
		Short:     "Print one dashboard view as JSON",
		Long:      "Print one dashboard view as JSON. Views: " + strings.Join(names(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := viewNames[args[0]]
			if !ok {
				return fmt.Errorf("unknown view %q (expected one of %s)", args[0], strings.Join(names(), ", "))
			}
			q, err := queryFlags(cmd)
			if err != nil {
				return err
			}
			svc, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			body, err := svc.JSON(cmd.Context(), view, q)
			if err != nil {
				return err
			}
			return e.print(cmd.OutOrStdout(), body)
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func addQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("from", "", "first day, YYYY-MM-DD")
	f.String("to", "", "last day, YYYY-MM-DD")
	f.String("machine", "", "machine name; empty for all machines")
	f.String("product", "", "product for production KPIs and the production view")
	f.String("category", "", "drill-down bar label")
	f.String("day", "", "day for the incidents detail and the day summary, YYYY-MM-DD")
	f.Int("top", 0, "number of observation terms")
}

// queryFlags goes through the same parser as the HTTP query string.
func queryFlags(cmd *cobra.Command) (dashboard.Query, error) {
	v := url.Values{}
	for _, name := range []string{"from", "to", "machine", "product", "category", "day"} {
		if s, _ := cmd.Flags().GetString(name); s != "" {
			v.Set(name, s)
		}
	}
	if top, _ := cmd.Flags().GetInt("top"); top != 0 {
		v.Set("top", strconv.Itoa(top))
	}
	return dashboard.ParseQuery(v)
}
