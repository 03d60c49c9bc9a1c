package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// RewardsServiceName gRPCサービス名
const RewardsServiceName = "ecorewards.v1.RewardsService"

// RewardsServiceServer 報酬サービスのサーバーインターフェース
// メッセージは google.protobuf.Struct で受け渡す
type RewardsServiceServer interface {
	GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AwardCredits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Redeem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTierProgress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type rewardsMethod func(srv RewardsServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call rewardsMethod) grpc.MethodDesc {
	fullMethod := "/" + RewardsServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RewardsServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RewardsServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RewardsServiceDesc 報酬サービスのサービス定義
var RewardsServiceDesc = grpc.ServiceDesc{
	ServiceName: RewardsServiceName,
	HandlerType: (*RewardsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetSummary", RewardsServiceServer.GetSummary),
		unaryHandler("AwardCredits", RewardsServiceServer.AwardCredits),
		unaryHandler("Redeem", RewardsServiceServer.Redeem),
		unaryHandler("GetTierProgress", RewardsServiceServer.GetTierProgress),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ecorewards/v1/rewards.proto",
}

// RegisterRewardsServiceServer サーバーに報酬サービスを登録
func RegisterRewardsServiceServer(s grpc.ServiceRegistrar, srv RewardsServiceServer) {
	s.RegisterService(&RewardsServiceDesc, srv)
}

// RewardsServiceClient 報酬サービスのクライアント
type RewardsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRewardsServiceClient 新しいRewardsServiceClientを作成
func NewRewardsServiceClient(cc grpc.ClientConnInterface) *RewardsServiceClient {
	return &RewardsServiceClient{cc: cc}
}

func (c *RewardsServiceClient) invoke(ctx context.Context, name string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+RewardsServiceName+"/"+name, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSummary 台帳の概要を取得
func (c *RewardsServiceClient) GetSummary(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSummary", req, opts...)
}

// AwardCredits クレジットを付与
func (c *RewardsServiceClient) AwardCredits(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AwardCredits", req, opts...)
}

// Redeem クレジットを交換
func (c *RewardsServiceClient) Redeem(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Redeem", req, opts...)
}

// GetTierProgress ティア進捗を取得
func (c *RewardsServiceClient) GetTierProgress(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetTierProgress", req, opts...)
}
