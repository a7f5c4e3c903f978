// Package api contains the HTTP handlers, routing, and error mapping for
// the service's REST surface. Handlers translate between HTTP and the
// service layer; they hold no business logic of their own.
package api
