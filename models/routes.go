package models

// Route names one of the top-level screens.
type Route string

const (
	RouteHome        Route = "home"
	RouteCryAnalyzer Route = "cry-analyzer"
	RouteFoodLens    Route = "food-lens"
	RouteChat        Route = "chat"

	DefaultRoute = RouteHome
)

// NavItem is one entry of the bottom navigation bar.
type NavItem struct {
	Route Route  `json:"route"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// NavItems is the navigation bar in display order.
var NavItems = []NavItem{
	{Route: RouteHome, Label: "首頁", Icon: "home"},
	{Route: RouteCryAnalyzer, Label: "哭聲翻譯", Icon: "mic"},
	{Route: RouteFoodLens, Label: "副食品鏡頭", Icon: "camera"},
	{Route: RouteChat, Label: "育兒顧問", Icon: "message-circle"},
}

// ParseRoute returns the route named by s, or DefaultRoute when s is unknown.
func ParseRoute(s string) Route {
	for _, item := range NavItems {
		if string(item.Route) == s {
			return item.Route
		}
	}
	return DefaultRoute
}
