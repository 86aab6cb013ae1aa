// Package http exposes the booking service over HTTP: the public webhook
// that ingests form submissions and the operator endpoints that decide
// bookings and inspect the record store.
package http
