package grpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

const dateLayout = "2006-01-02"

type GrpcServer struct {
	core   *usecase.CoreUseCase
	logger *zap.Logger
}

func NewGrpcServer(core *usecase.CoreUseCase, logger *zap.Logger) *GrpcServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrpcServer{
		core:   core,
		logger: logger,
	}
}

func (s *GrpcServer) Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error) {
	ok, err := s.core.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &AuthenticateResponse{Authenticated: ok}, nil
}

func (s *GrpcServer) GetUnits(ctx context.Context, req *GetUnitsRequest) (*GetUnitsResponse, error) {
	group, err := domain.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return nil, toStatus(err)
	}
	units, found, err := s.core.Ledger().GetUnits(ctx, group)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetUnitsResponse{BloodGroup: group.String(), UnitsAvailable: units, Found: found}, nil
}

func (s *GrpcServer) ListStock(ctx context.Context, _ *ListStockRequest) (*ListStockResponse, error) {
	stock, err := s.core.Ledger().ListAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListStockResponse{Stock: stock}, nil
}

func (s *GrpcServer) Donate(ctx context.Context, req *DonateRequest) (*PostingResponse, error) {
	receipt, err := s.core.Donate(ctx, usecase.DonateCommand{
		RefID:   req.RefID,
		DonorID: req.DonorID,
		Units:   req.Units,
	})
	return s.postingResponse("Donate", receipt, err)
}

func (s *GrpcServer) Request(ctx context.Context, req *BloodRequest) (*PostingResponse, error) {
	group, err := domain.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return nil, toStatus(err)
	}
	receipt, err := s.core.Request(ctx, usecase.RequestCommand{
		RefID:      req.RefID,
		Requester:  req.Requester,
		BloodGroup: group,
		Units:      req.Units,
	})
	return s.postingResponse("Request", receipt, err)
}

// postingResponse 業務結果回傳 Success=false，其餘錯誤轉成 gRPC status
func (s *GrpcServer) postingResponse(method string, receipt *domain.Receipt, err error) (*PostingResponse, error) {
	if err != nil {
		if domain.IsBusinessOutcome(err) {
			s.logger.Info("posting declined", zap.String("method", method), zap.String("reason", err.Error()))
			return &PostingResponse{Success: false, Message: err.Error()}, nil
		}
		return nil, toStatus(err)
	}
	if receipt.Replayed {
		s.logger.Info("posting replayed", zap.String("method", method), zap.String("ref_id", receipt.Transaction.RefID))
	}
	tran := receipt.Transaction
	return &PostingResponse{
		Success:        true,
		Transaction:    &tran,
		UnitsAvailable: receipt.UnitsAvailable,
		Replayed:       receipt.Replayed,
	}, nil
}

func (s *GrpcServer) RegisterDonor(ctx context.Context, req *RegisterDonorRequest) (*RegisterDonorResponse, error) {
	group, err := domain.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return nil, toStatus(err)
	}
	var date time.Time
	if req.DonationDate != "" {
		date, err = time.Parse(dateLayout, req.DonationDate)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid donation_date: %v", err)
		}
	}
	id, err := s.core.Journal().RegisterDonor(ctx, req.Name, group, req.Contact, date)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RegisterDonorResponse{DonorID: id}, nil
}

func (s *GrpcServer) GetDonor(ctx context.Context, req *GetDonorRequest) (*GetDonorResponse, error) {
	var (
		donor *domain.Donor
		err   error
	)
	if req.ID > 0 {
		donor, err = s.core.Journal().GetDonorByID(ctx, req.ID)
	} else {
		donor, err = s.core.Journal().GetDonor(ctx, req.Name)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetDonorResponse{Found: donor != nil, Donor: donor}, nil
}

func (s *GrpcServer) ListDonors(ctx context.Context, _ *ListDonorsRequest) (*ListDonorsResponse, error) {
	donors, err := s.core.Journal().ListDonors(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListDonorsResponse{Donors: donors}, nil
}

func (s *GrpcServer) ListAllDonors(ctx context.Context, _ *ListDonorsRequest) (*ListAllDonorsResponse, error) {
	donors, err := s.core.Journal().ListAllDonors(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListAllDonorsResponse{Donors: donors}, nil
}

func (s *GrpcServer) DeleteDonor(ctx context.Context, req *DeleteDonorRequest) (*DeleteDonorResponse, error) {
	deleted, err := s.core.Journal().DeleteDonor(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DeleteDonorResponse{Deleted: deleted}, nil
}

func (s *GrpcServer) History(ctx context.Context, _ *HistoryRequest) (*HistoryResponse, error) {
	history, err := s.core.Journal().History(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &HistoryResponse{Transactions: history}, nil
}

// toStatus 將 domain 錯誤對應到 gRPC status code
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidQuantity):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrDonorNotFound), errors.Is(err, domain.ErrUnknownBloodGroup):
		code = codes.NotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrDuplicateRequest):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrStorageUnavailable):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

var _ BloodBankServer = (*GrpcServer)(nil)
