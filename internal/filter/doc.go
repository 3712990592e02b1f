// Package filter removes associations from content trees and keeps sibling
// positions dense afterwards.
//
// [FilterResources] is the core operation: it drops every association whose
// resource type matches a [Matcher], at any depth, and renumbers the
// survivors of each level 0..n-1. The input tree is never modified.
//
// The package is built around the [Filter] interface and [Chain] type,
// which allow composable, ordered filter application. Named profiles
// bundle common filter settings.
package filter
