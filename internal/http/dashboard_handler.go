package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ideabank/internal/analytics"
)

var countryQuery = gountries.New()

// DashboardIndexAction renders the admin analytics dashboard: totals,
// time-window counts, breakdowns, rates and the paginated visit log.
func DashboardIndexAction(ctx *cartridge.Context) error {
	page := ctx.Ctx.QueryInt("page", 1)

	dashboard, err := analytics.BuildDashboard(ctx.DB(), time.Now(), page)
	if err != nil {
		ctx.Logger.Error("Failed to build dashboard", slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Could not load the dashboard")
		return ctx.Redirect("/", fiber.StatusFound)
	}

	return inertia.RenderPage(ctx.Ctx, "Dashboard", inertia.Props{
		"totals": fiber.Map{
			"users":           dashboard.Totals.Users,
			"ideas":           dashboard.Totals.Ideas,
			"comments":        dashboard.Totals.Comments,
			"visits":          dashboard.Totals.Visits,
			"new_users_month": dashboard.Totals.NewUsersMonth,
			"new_ideas_month": dashboard.Totals.NewIdeasMonth,
		},
		"visit_windows": fiber.Map{
			"today": dashboard.Windows.Today,
			"week":  dashboard.Windows.Week,
			"month": dashboard.Windows.Month,
		},
		"unique_visitors": dashboard.UniqueIPs,
		"top_pages":       dashboard.TopPages,
		"top_browsers":    dashboard.TopBrowsers,
		"top_devices":     dashboard.TopDevices,
		"top_countries":   labelCountries(dashboard.TopCountries),
		"traffic_sources": dashboard.Traffic,
		"bounce_rate":     dashboard.Bounce,
		"conversion_rate": dashboard.Conversion,
		"sessions":        dashboard.Sessions,
		"visits": fiber.Map{
			"items":        serializeVisits(dashboard.VisitPage.Visits),
			"current_page": dashboard.VisitPage.CurrentPage,
			"total_pages":  dashboard.VisitPage.TotalPages,
			"total_items":  dashboard.VisitPage.TotalItems,
		},
	})
}

// labelCountries replaces ISO codes with display names where the code is
// known, title-cased for consistency across data sources.
func labelCountries(results []analytics.MetricCountResult) []analytics.MetricCountResult {
	titler := cases.Title(language.English)
	labeled := make([]analytics.MetricCountResult, len(results))
	for i, r := range results {
		name := r.Name
		if country, err := countryQuery.FindCountryByAlpha(strings.ToUpper(r.Name)); err == nil {
			name = country.Name.Common
		}
		labeled[i] = analytics.MetricCountResult{
			Name:  titler.String(name),
			Count: r.Count,
		}
	}
	return labeled
}
