package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	qpb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Qdrant gRPC endpoint.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
	// Wait makes upserts block until the points are indexed and queryable.
	Wait bool
	// Timeout bounds every RPC; zero leaves deadlines to the caller's context.
	Timeout time.Duration
}

type collectionsAPI interface {
	CollectionExists(ctx context.Context, in *qpb.CollectionExistsRequest, opts ...grpc.CallOption) (*qpb.CollectionExistsResponse, error)
	Create(ctx context.Context, in *qpb.CreateCollection, opts ...grpc.CallOption) (*qpb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *qpb.DeleteCollection, opts ...grpc.CallOption) (*qpb.CollectionOperationResponse, error)
	Get(ctx context.Context, in *qpb.GetCollectionInfoRequest, opts ...grpc.CallOption) (*qpb.GetCollectionInfoResponse, error)
}

type pointsAPI interface {
	Upsert(ctx context.Context, in *qpb.UpsertPoints, opts ...grpc.CallOption) (*qpb.PointsOperationResponse, error)
	Scroll(ctx context.Context, in *qpb.ScrollPoints, opts ...grpc.CallOption) (*qpb.ScrollResponse, error)
	Query(ctx context.Context, in *qpb.QueryPoints, opts ...grpc.CallOption) (*qpb.QueryResponse, error)
}

type healthAPI interface {
	HealthCheck(ctx context.Context, in *qpb.HealthCheckRequest, opts ...grpc.CallOption) (*qpb.HealthCheckReply, error)
}

// Store implements db.Store over the Qdrant gRPC API.
type Store struct {
	conn        *grpc.ClientConn
	collections collectionsAPI
	points      pointsAPI
	health      healthAPI
	wait        bool
	timeout     time.Duration
}

// NewStore creates a Qdrant store. The connection is established lazily.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, errors.New("host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	var creds credentials.TransportCredentials = insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(net.JoinHostPort(cfg.Host, strconv.Itoa(port)), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{
		conn:        conn,
		collections: qpb.NewCollectionsClient(conn),
		points:      qpb.NewPointsClient(conn),
		health:      qpb.NewQdrantClient(conn),
		wait:        cfg.Wait,
		timeout:     cfg.Timeout,
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Ping checks connectivity via the Qdrant health RPC.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	if _, err := s.health.HealthCheck(ctx, &qpb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("ping: %w", &db.Error{Op: db.OpHealth, Err: err})
	}
	return nil
}

// Close shuts down the connection.
func (s *Store) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for qdrant: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// AcknowledgesWrites reports whether upserts wait for indexing.
func (s *Store) AcknowledgesWrites() bool { return s.wait }

func (s *Store) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
