package grpc

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/api/grpc/proto"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/observability"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Query implements the Query RPC: reverse k-MIPS over the server's
// pre-built engine.
func (s *Server) Query(ctx context.Context, req *proto.QueryRequest) (*proto.QueryResponse, error) {
	start := time.Now()

	if len(req.Vector) == 0 {
		return nil, status.Error(codes.InvalidArgument, "vector must not be empty")
	}
	if req.K < 1 {
		return nil, status.Error(codes.InvalidArgument, "k must be positive")
	}

	query := make([]float32, len(req.Vector))
	copy(query, req.Vector)

	userIDs, err := s.engine.ReverseKMips(query, int(req.K))
	if err != nil {
		observability.Errorf("reverse_k_mips query failed: %v", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ids := make([]int32, len(userIDs))
	for i, id := range userIDs {
		ids[i] = int32(id)
	}

	return &proto.QueryResponse{
		UserIds:    ids,
		DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

// Health implements the Health RPC.
func (s *Server) Health(ctx context.Context, req *proto.HealthRequest) (*proto.HealthResponse, error) {
	return &proto.HealthResponse{
		Serving:       true,
		UptimeSeconds: s.Uptime().Seconds(),
	}, nil
}

// Stats implements the Stats RPC.
func (s *Server) Stats(ctx context.Context, req *proto.StatsRequest) (*proto.StatsResponse, error) {
	hits, misses, _ := s.engine.CacheStats()
	return &proto.StatsResponse{
		Variant:             s.engine.Variant().String(),
		KMax:                int32(s.engine.KMax()),
		MemoryEstimateBytes: s.engine.MemoryEstimate(),
		CacheHits:           hits,
		CacheMisses:         misses,
	}, nil
}
