// Package server hosts the runtime surfaces of outboxd: the JSON HTTP
// API used by frontends, the health endpoints for orchestration probes,
// and the dedicated Prometheus metrics listener.
//
// ServerContext ties the surfaces to the shared dependencies (action
// service, tool registry, instrumentation) and owns graceful shutdown.
package server
