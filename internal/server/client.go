package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the Engine service on a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, name string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// CreateGame starts a game; req holds players, kingdom or preset, seed (as a
// decimal string) and viewer.
func (c *Client) CreateGame(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	return c.call(ctx, "CreateGame", req, opts...)
}

// Execute runs a command; req holds game_id, command, player, card and
// selection.
func (c *Client) Execute(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	return c.call(ctx, "Execute", req, opts...)
}

func (c *Client) GetState(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	return c.call(ctx, "GetState", req, opts...)
}

func (c *Client) GetEvents(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	return c.call(ctx, "GetEvents", req, opts...)
}
