// Package search composes optional member criteria into predicates, plans the
// member/team left join and projection, and paginates results with either a
// simple or an optimized total-count strategy. Queries are executed by an
// Engine supplied on every call.
package search
