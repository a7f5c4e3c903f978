// Package store defines persistence interfaces and shared database helpers.
package store
