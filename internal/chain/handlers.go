package chain

import (
	"log/slog"

	"github.com/starford/navkit/internal/route"
)

// Handler names.
const (
	AdminHandler       = "admin"
	DeepLinkHandler    = "deeplink"
	ImperativeHandler  = "imperative"
	DeclarativeHandler = "declarative"
)

// DeclarativeRoutes are claimed by the declarative handler without a prefix.
var DeclarativeRoutes = []string{"home", "profile", "settings", "about", "detail"}

// NewAdmin claims "admin_" keys. Admin screens are pushed or presented,
// never swapped in as tabs.
func NewAdmin(factories FactorySource, logger *slog.Logger) *BaseHandler {
	return NewHandler(AdminHandler, Prefix("admin_"), 0,
		[]route.NavigationType{route.Push, route.Sheet, route.FullScreen, route.Modal},
		factories, logger)
}

// NewDeepLink claims "deeplink_" keys. Deep links land by push, replace,
// sheet or tab switch.
func NewDeepLink(factories FactorySource, logger *slog.Logger) *BaseHandler {
	return NewHandler(DeepLinkHandler, Prefix("deeplink_"), 0,
		[]route.NavigationType{route.Push, route.Replace, route.Sheet, route.Tab},
		factories, logger)
}

// NewImperative claims keys ending in "VC" or starting with "uikit_" and
// builds imperative controllers for them.
func NewImperative(factories FactorySource, logger *slog.Logger) *BaseHandler {
	return NewHandler(ImperativeHandler, Any(Suffix("VC"), Prefix("uikit_")), route.Imperative,
		route.AllTypes, factories, logger)
}

// NewDeclarative claims "swiftui_" keys and the DeclarativeRoutes allow-list
// and builds declarative views for them.
func NewDeclarative(factories FactorySource, logger *slog.Logger) *BaseHandler {
	return NewHandler(DeclarativeHandler, Any(Prefix("swiftui_"), OneOf(DeclarativeRoutes...)), route.Declarative,
		[]route.NavigationType{route.Push, route.Sheet, route.FullScreen, route.Modal},
		factories, logger)
}

// Default returns the standard chain: admin, deep-link, imperative, then
// declarative.
func Default(factories FactorySource, logger *slog.Logger) *Chain {
	return NewBuilder(logger).
		Add(NewAdmin(factories, logger)).
		Add(NewDeepLink(factories, logger)).
		Add(NewImperative(factories, logger)).
		Add(NewDeclarative(factories, logger)).
		Build()
}

// Factories returns a FactorySource that builds descriptor views titled
// from titles when present.
func Factories(titles map[string]string) FactorySource {
	return func(b route.Backend, key route.Key) route.Factory {
		return route.DescriptorFactory(b, titles[key.Name])
	}
}
