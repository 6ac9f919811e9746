package mcpserver

// RouteConventions describes how route keys are claimed and presented, so
// LLM consumers can pick valid routes and presentation types.
const RouteConventions = `# navkit Route Conventions

Every route key is claimed by exactly one registration handler, chosen by
the first matching rule below.

| Rule | Handler | Allowed presentations |
|---|---|---|
| starts with ` + "`admin_`" + ` | admin | push, sheet, fullScreen, modal |
| starts with ` + "`deeplink_`" + ` | deeplink | push, replace, sheet, tab |
| ends with ` + "`VC`" + ` or starts with ` + "`uikit_`" + ` | imperative | all |
| starts with ` + "`swiftui_`" + ` or is home, profile, settings, about, detail | declarative | push, sheet, fullScreen, modal |

A route is only registered when the running strategy also supports its
presentation. Imperative and declarative routes register only on a strategy
of their own backend; admin and deep-link routes follow the running strategy. The declarative strategy cannot switch tabs by navigation or
replace the top of a stack; use set_tab instead of a tab presentation.

## Presentation types

- push: add a level to the current tab's stack
- replace: swap the top of the stack (push when empty)
- sheet, fullScreen, modal: present above the current tab
- tab: switch to the tab named by the route or the tab argument

## Back

navigate_back dismisses the newest sheet, then full-screen cover, then modal
of the current tab; only when none is open does it pop the stack. At the
root it does nothing.

## Parameters

Parameters are passed as a query string: ` + "`userId=42&tab=feed`" + `.
Values are percent-decoded. In deep links (open_url) the reserved items
` + "`navigationType`" + ` and ` + "`tab`" + ` select the presentation and tab.
`
