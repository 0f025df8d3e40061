package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AccountService_SignUp_FullMethodName         = "/swapskills.AccountService/SignUp"
	AccountService_SignIn_FullMethodName         = "/swapskills.AccountService/SignIn"
	AccountService_GetProfile_FullMethodName     = "/swapskills.AccountService/GetProfile"
	AccountService_SaveProfile_FullMethodName    = "/swapskills.AccountService/SaveProfile"
	AccountService_SearchProfiles_FullMethodName = "/swapskills.AccountService/SearchProfiles"
)

// PublicMethods need no session token.
var PublicMethods = map[string]bool{
	AccountService_SignUp_FullMethodName: true,
	AccountService_SignIn_FullMethodName: true,
}

// AccountServiceServer is the server API for AccountService.
type AccountServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*Profile, error)
	SaveProfile(context.Context, *SaveProfileRequest) (*Profile, error)
	SearchProfiles(context.Context, *SearchProfilesRequest) (*SearchProfilesResponse, error)
}

var AccountService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "swapskills.AccountService",
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(AccountService_SignUp_FullMethodName, AccountServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(AccountService_SignIn_FullMethodName, AccountServiceServer.SignIn)},
		{MethodName: "GetProfile", Handler: unary(AccountService_GetProfile_FullMethodName, AccountServiceServer.GetProfile)},
		{MethodName: "SaveProfile", Handler: unary(AccountService_SaveProfile_FullMethodName, AccountServiceServer.SaveProfile)},
		{MethodName: "SearchProfiles", Handler: unary(AccountService_SearchProfiles_FullMethodName, AccountServiceServer.SearchProfiles)},
	},
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountService_ServiceDesc, srv)
}

// AccountServiceClient is the client API for AccountService.
type AccountServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountServiceClient(cc grpc.ClientConnInterface) *AccountServiceClient {
	return &AccountServiceClient{cc: cc}
}

func (c *AccountServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AccountService_SignUp_FullMethodName, in, opts)
}

func (c *AccountServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AccountService_SignIn_FullMethodName, in, opts)
}

func (c *AccountServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, AccountService_GetProfile_FullMethodName, in, opts)
}

func (c *AccountServiceClient) SaveProfile(ctx context.Context, in *SaveProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, AccountService_SaveProfile_FullMethodName, in, opts)
}

func (c *AccountServiceClient) SearchProfiles(ctx context.Context, in *SearchProfilesRequest, opts ...grpc.CallOption) (*SearchProfilesResponse, error) {
	return invoke[SearchProfilesResponse](ctx, c.cc, AccountService_SearchProfiles_FullMethodName, in, opts)
}
