// Package router maps ladle's navigation paths to named routes and decides
// whether the current session may enter them.
//
// Paths are matched with a chi route tree, so static segments win over
// parameters (/recipes/new before /recipes/{id}). Unknown paths resolve to
// [NotFound], which any session may enter.
package router
