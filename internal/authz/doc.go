// Package authz is the single decision point for role and ownership
// checks. Every function is pure: callers pass the acting principal and
// whatever ownership facts the decision needs, and nothing is looked up.
package authz
