// Package transport owns the authenticated channel to the combiner and the
// three stub clients built on top of it: Connector, Combiner, and
// ModelService. It also implements the chunked artifact upload/download
// protocol on top of ModelService.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/scaleout-labs/fednworker/api/proto"
	"github.com/scaleout-labs/fednworker/internal/config"
	"github.com/scaleout-labs/fednworker/internal/types"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// ChunkSize is the maximum number of artifact bytes carried per frame.
const ChunkSize = 1024 * 1024

// Transport wraps a grpc.ClientConn and the three service stubs built on it.
type Transport struct {
	conn      *grpc.ClientConn
	Connector proto.ConnectorClient
	Combiner  proto.CombinerClient
	Models    proto.ModelServiceClient
}

// Dial builds a channel to the combiner named in assignment, following the
// channel-construction precedence:
//
//  1. assignment carries a base64 certificate -> secure channel rooted at it.
//  2. the root-cert env var is set -> secure channel rooted at that file.
//  3. cfg.Secure is true -> fetch the server cert on demand, optionally with
//     bearer call credentials.
//  4. else an insecure channel, rewriting port 443 to 80.
func Dial(ctx context.Context, assignment types.Assignment, cfg *config.Config) (*Transport, error) {
	host := assignment.Host
	port := assignment.Port
	if assignment.FQDN != "" {
		host = assignment.FQDN
		port = 443
	}

	var creds credentials.TransportCredentials
	var callCreds credentials.PerRPCCredentials

	switch {
	case assignment.Certificate != "":
		pool, err := certPoolFromBase64(assignment.Certificate)
		if err != nil {
			return nil, fmt.Errorf("decode assignment certificate: %w", err)
		}
		creds = credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13})

	case config.RootCertPath() != "":
		pool, err := certPoolFromFile(config.RootCertPath())
		if err != nil {
			return nil, fmt.Errorf("load root cert from %s: %w", config.RootCertPath(), err)
		}
		creds = credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13})

	case cfg.Secure:
		pool, err := fetchServerCertPool(host, port)
		if err != nil {
			return nil, fmt.Errorf("fetch server certificate: %w", err)
		}
		creds = credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13})
		if cfg.Token != "" {
			callCreds = bearerTokenCreds{token: cfg.Token, requireTLS: true}
		}

	default:
		if port == 443 {
			port = 80
		}
		creds = insecure.NewCredentials()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if callCreds != nil {
		opts = append(opts, grpc.WithPerRPCCredentials(callCreds))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial combiner %s: %w", addr, err)
	}

	return &Transport{
		conn:      conn,
		Connector: proto.NewConnectorClient(conn),
		Combiner:  proto.NewCombinerClient(conn),
		Models:    proto.NewModelServiceClient(conn),
	}, nil
}

// Close tears down the underlying connection. Safe to call more than once.
func (t *Transport) Close() error {
	if t == nil || t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// Download fetches the artifact identified by id, concatenating IN_PROGRESS
// frames until an OK terminal frame arrives; FAILED aborts with an error.
func (t *Transport) Download(ctx context.Context, id string) ([]byte, error) {
	stream, err := t.Models.Download(ctx, &proto.ModelRequest{ID: id, Status: proto.ModelStatus_IN_PROGRESS})
	if err != nil {
		return nil, fmt.Errorf("open download stream: %w", err)
	}
	var buf bytes.Buffer
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil, fmt.Errorf("download stream closed before a terminal frame")
		}
		if err != nil {
			return nil, fmt.Errorf("recv download frame: %w", err)
		}
		switch resp.Status {
		case proto.ModelStatus_IN_PROGRESS:
			buf.Write(resp.Data)
			metrics.BytesTransferredTotal.WithLabelValues("download").Add(float64(len(resp.Data)))
		case proto.ModelStatus_OK:
			return buf.Bytes(), nil
		case proto.ModelStatus_FAILED:
			return nil, fmt.Errorf("download of %s failed", id)
		}
	}
}

// Upload streams data to the combiner under id in ChunkSize frames, closing
// with a zero-data OK frame.
func (t *Transport) Upload(ctx context.Context, id string, data []byte) error {
	stream, err := t.Models.Upload(ctx)
	if err != nil {
		return fmt.Errorf("open upload stream: %w", err)
	}
	for off := 0; off < len(data); off += ChunkSize {
		end := off + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		frame := &proto.ModelRequest{ID: id, Data: data[off:end], Status: proto.ModelStatus_IN_PROGRESS}
		if err := stream.Send(frame); err != nil {
			return fmt.Errorf("send upload chunk: %w", err)
		}
		metrics.BytesTransferredTotal.WithLabelValues("upload").Add(float64(end - off))
	}
	if err := stream.Send(&proto.ModelRequest{ID: id, Status: proto.ModelStatus_OK}); err != nil {
		return fmt.Errorf("send upload terminator: %w", err)
	}
	if _, err := stream.CloseAndRecv(); err != nil {
		return fmt.Errorf("close upload stream: %w", err)
	}
	return nil
}

func certPoolFromBase64(encoded string) (*x509.CertPool, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, fmt.Errorf("no certificates found in assignment certificate")
	}
	return pool, nil
}

func certPoolFromFile(path string) (*x509.CertPool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// fetchServerCertPool retrieves the combiner's TLS certificate chain over a
// TLS handshake performed purely to harvest the chain, then trusts it
// directly -- the "fetch the server certificate on demand" branch of the
// channel-construction precedence.
func fetchServerCertPool(host string, port int) (*x509.CertPool, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := tls.Dial("tcp", addr, &tls.Config{InsecureSkipVerify: true}) //nolint:gosec // harvesting the chain by design
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	pool := x509.NewCertPool()
	for _, cert := range conn.ConnectionState().PeerCertificates {
		pool.AddCert(cert)
	}
	return pool, nil
}

// bearerTokenCreds attaches "authorization: Token <value>" to every RPC, the
// Go-idiomatic analogue of a custom gRPC auth metadata plugin.
type bearerTokenCreds struct {
	token      string
	requireTLS bool
}

func (b bearerTokenCreds) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Token " + b.token}, nil
}

func (b bearerTokenCreds) RequireTransportSecurity() bool {
	return b.requireTLS
}
