package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

const ServiceName = "bloodbank.v1.BloodBank"

type AuthenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthenticateResponse struct {
	Authenticated bool `json:"authenticated"`
}

type GetUnitsRequest struct {
	BloodGroup string `json:"blood_group"`
}

type GetUnitsResponse struct {
	BloodGroup     string `json:"blood_group"`
	UnitsAvailable int64  `json:"units_available"`
	// Found=false 表示該血型還沒有庫存紀錄
	Found bool `json:"found"`
}

type ListStockRequest struct{}

type ListStockResponse struct {
	Stock []domain.BloodGroupStock `json:"stock"`
}

type DonateRequest struct {
	RefID   string `json:"ref_id,omitempty"`
	DonorID int64  `json:"donor_id"`
	Units   int64  `json:"units"`
}

type BloodRequest struct {
	RefID      string `json:"ref_id,omitempty"`
	Requester  string `json:"requester"`
	BloodGroup string `json:"blood_group"`
	Units      int64  `json:"units"`
}

// PostingResponse Donate / Request 的回應
// 庫存不足、血型無紀錄屬於業務結果，以 Success=false 回傳 (Soft Failure)
type PostingResponse struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message,omitempty"`
	Transaction    *domain.Transaction `json:"transaction,omitempty"`
	UnitsAvailable int64               `json:"units_available"`
	Replayed       bool                `json:"replayed,omitempty"`
}

type RegisterDonorRequest struct {
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	Contact    string `json:"contact"`
	// DonationDate: YYYY-MM-DD，空字串代表今天
	DonationDate string `json:"donation_date,omitempty"`
}

type RegisterDonorResponse struct {
	DonorID int64 `json:"donor_id"`
}

// GetDonorRequest ID > 0 時依 ID 查詢，否則依名稱
type GetDonorRequest struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type GetDonorResponse struct {
	Found bool          `json:"found"`
	Donor *domain.Donor `json:"donor,omitempty"`
}

type ListDonorsRequest struct{}

type ListDonorsResponse struct {
	Donors []domain.DonorSummary `json:"donors"`
}

type ListAllDonorsResponse struct {
	Donors []domain.Donor `json:"donors"`
}

type DeleteDonorRequest struct {
	ID int64 `json:"id"`
}

type DeleteDonorResponse struct {
	Deleted bool `json:"deleted"`
}

type HistoryRequest struct{}

type HistoryResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// BloodBankServer 是 bloodbank.v1.BloodBank 的服務端介面
type BloodBankServer interface {
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	GetUnits(context.Context, *GetUnitsRequest) (*GetUnitsResponse, error)
	ListStock(context.Context, *ListStockRequest) (*ListStockResponse, error)
	Donate(context.Context, *DonateRequest) (*PostingResponse, error)
	Request(context.Context, *BloodRequest) (*PostingResponse, error)
	RegisterDonor(context.Context, *RegisterDonorRequest) (*RegisterDonorResponse, error)
	GetDonor(context.Context, *GetDonorRequest) (*GetDonorResponse, error)
	ListDonors(context.Context, *ListDonorsRequest) (*ListDonorsResponse, error)
	ListAllDonors(context.Context, *ListDonorsRequest) (*ListAllDonorsResponse, error)
	DeleteDonor(context.Context, *DeleteDonorRequest) (*DeleteDonorResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// ServiceDesc 手動宣告的服務描述，訊息以 JSON codec 編碼
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BloodBankServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: unaryHandler("Authenticate", BloodBankServer.Authenticate)},
		{MethodName: "GetUnits", Handler: unaryHandler("GetUnits", BloodBankServer.GetUnits)},
		{MethodName: "ListStock", Handler: unaryHandler("ListStock", BloodBankServer.ListStock)},
		{MethodName: "Donate", Handler: unaryHandler("Donate", BloodBankServer.Donate)},
		{MethodName: "Request", Handler: unaryHandler("Request", BloodBankServer.Request)},
		{MethodName: "RegisterDonor", Handler: unaryHandler("RegisterDonor", BloodBankServer.RegisterDonor)},
		{MethodName: "GetDonor", Handler: unaryHandler("GetDonor", BloodBankServer.GetDonor)},
		{MethodName: "ListDonors", Handler: unaryHandler("ListDonors", BloodBankServer.ListDonors)},
		{MethodName: "ListAllDonors", Handler: unaryHandler("ListAllDonors", BloodBankServer.ListAllDonors)},
		{MethodName: "DeleteDonor", Handler: unaryHandler("DeleteDonor", BloodBankServer.DeleteDonor)},
		{MethodName: "History", Handler: unaryHandler("History", BloodBankServer.History)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bloodbank/v1/bloodbank.json",
}

// RegisterBloodBankServer 將服務註冊到 gRPC server
func RegisterBloodBankServer(s grpc.ServiceRegistrar, srv BloodBankServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler 將型別化的方法轉成 grpc.MethodDesc 的 handler
func unaryHandler[Req, Resp any](method string, call func(BloodBankServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BloodBankServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BloodBankServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
