// Package server runs the HTTP and gRPC batch services and stops them in
// order on SIGINT, SIGTERM or a startup failure.
package server
