package rpc

import (
	"context"

	"github.com/LerianStudio/lib-transactor/transactor"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls processor.Process over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Process sends the batch. The request id in ctx, if any, travels as
// metadata_id together with the trace context.
func (c *Client) Process(ctx context.Context, in *Transactions, opts ...grpc.CallOption) (*Accounts, error) {
	if v, ok := ctx.Value(transactor.CustomContextKey).(*transactor.CustomContextKeyValue); ok && v.HeaderID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, constant.MetadataID, v.HeaderID)
	}

	ctx = opentelemetry.InjectGRPCContext(ctx)

	out := new(Accounts)

	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, ProcessFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
