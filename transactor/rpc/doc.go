// Package rpc exposes the ledger as the gRPC service processor.Process.
//
// Messages are plain Go structs carried by a JSON codec registered under the
// "json" content subtype, so callers need no generated code:
//
//	conn, _ := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
//	accounts, err := rpc.NewClient(conn).Process(ctx, &rpc.Transactions{...})
package rpc
