// Package domain contains the core entities of the application: documents,
// their chunks, and solve requests. Entities validate themselves and carry
// no persistence or transport concerns.
package domain
