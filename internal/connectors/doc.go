// Package connectors provides implementations of the RemoteSource interface
// for remote document databases. Each connector knows how to fetch raw
// database objects and records from a specific API.
package connectors
