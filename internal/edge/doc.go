// Package edge decides, before any page handler runs, whether a browser
// navigation is allowed through or redirected. Decisions depend only on the
// URL path and the session token; resource-level checks stay with the API.
package edge
