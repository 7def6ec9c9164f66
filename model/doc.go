// Package model defines the bun-mapped Member and Team entities, their audit
// columns, and the read-only projections returned by searches.
package model
