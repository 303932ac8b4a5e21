// Package api exposes the scenario engine over HTTP. Engine errors map
// onto statuses: NotFound 404, Permission 403, Conflict 409, Locked 423,
// and invalid input or cross-network requests 400.
package api
