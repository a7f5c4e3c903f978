// Package service contains the application's business logic: document and
// solve-request lifecycles on the write side, and the task handlers that
// perform the corresponding background work. Services persist state and emit
// task request events; handlers consume the resulting queue tasks.
package service
