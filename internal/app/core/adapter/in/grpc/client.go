package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client 是 bloodbank.v1.BloodBank 的型別化客戶端
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error) {
	out := new(AuthenticateResponse)
	if err := c.invoke(ctx, "Authenticate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUnits(ctx context.Context, in *GetUnitsRequest, opts ...grpc.CallOption) (*GetUnitsResponse, error) {
	out := new(GetUnitsResponse)
	if err := c.invoke(ctx, "GetUnits", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStock(ctx context.Context, in *ListStockRequest, opts ...grpc.CallOption) (*ListStockResponse, error) {
	out := new(ListStockResponse)
	if err := c.invoke(ctx, "ListStock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Donate(ctx context.Context, in *DonateRequest, opts ...grpc.CallOption) (*PostingResponse, error) {
	out := new(PostingResponse)
	if err := c.invoke(ctx, "Donate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Request(ctx context.Context, in *BloodRequest, opts ...grpc.CallOption) (*PostingResponse, error) {
	out := new(PostingResponse)
	if err := c.invoke(ctx, "Request", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegisterDonor(ctx context.Context, in *RegisterDonorRequest, opts ...grpc.CallOption) (*RegisterDonorResponse, error) {
	out := new(RegisterDonorResponse)
	if err := c.invoke(ctx, "RegisterDonor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDonor(ctx context.Context, in *GetDonorRequest, opts ...grpc.CallOption) (*GetDonorResponse, error) {
	out := new(GetDonorResponse)
	if err := c.invoke(ctx, "GetDonor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDonors(ctx context.Context, in *ListDonorsRequest, opts ...grpc.CallOption) (*ListDonorsResponse, error) {
	out := new(ListDonorsResponse)
	if err := c.invoke(ctx, "ListDonors", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAllDonors(ctx context.Context, in *ListDonorsRequest, opts ...grpc.CallOption) (*ListAllDonorsResponse, error) {
	out := new(ListAllDonorsResponse)
	if err := c.invoke(ctx, "ListAllDonors", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteDonor(ctx context.Context, in *DeleteDonorRequest, opts ...grpc.CallOption) (*DeleteDonorResponse, error) {
	out := new(DeleteDonorResponse)
	if err := c.invoke(ctx, "DeleteDonor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, "History", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
