// Package grpc exposes the standard gRPC health service for load balancers
// and grpcurl. The JSON API itself is served over HTTP.
package grpc

import (
	"context"
	"time"

	"gearloan-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health entry that tracks the booking backend
const ServiceName = "gearloan.v1.Backend"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the gRPC health status in step with the store
type HealthReporter struct {
	store  Pinger
	server *health.Server
}

func NewHealthReporter(store Pinger) *HealthReporter {
	h := &HealthReporter{store: store, server: health.NewServer()}
	h.server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Probe pings the store and publishes the outcome for both the overall and
// the backend service entries
func (h *HealthReporter) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := h.store.Ping(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn("health probe failed", "error", err)
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return err
}

// Shutdown marks every service NOT_SERVING so clients drain
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

// NewServer builds a gRPC server carrying the health service and reflection
func NewServer(h *HealthReporter, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, h.server)
	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
