package transport

import (
	"context"

	"google.golang.org/grpc"
)

// IPhysicsClient определяет интерфейс для взаимодействия с сервером физики
type IPhysicsClient interface {
	AddCharacter(ctx context.Context, req *AddCharacterRequest, opts ...grpc.CallOption) (*CharacterState, error)
	RemoveCharacter(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*Empty, error)
	GetCharacter(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*CharacterState, error)
	SetCharacterState(ctx context.Context, req *SetCharacterStateRequest, opts ...grpc.CallOption) (*CharacterState, error)
	PlaceObject(ctx context.Context, req *PlaceObjectRequest, opts ...grpc.CallOption) (*PlaceObjectResponse, error)
	RemoveObject(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*Empty, error)
	RayTest(ctx context.Context, req *RayTestRequest, opts ...grpc.CallOption) (*RayTestResponse, error)
	RayTestAll(ctx context.Context, req *RayTestRequest, opts ...grpc.CallOption) (*RayTestAllResponse, error)
	SphereCast(ctx context.Context, req *SphereCastRequest, opts ...grpc.CallOption) (*SphereCastResponse, error)
	Collisions(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*CollisionsResponse, error)
	StandingOn(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*StandingOnResponse, error)
	Step(ctx context.Context, req *StepRequest, opts ...grpc.CallOption) (*StepResponse, error)
	GetConfig(ctx context.Context, req *Empty, opts ...grpc.CallOption) (*PhysicsConfig, error)
	SetConfig(ctx context.Context, req *PhysicsConfig, opts ...grpc.CallOption) (*PhysicsConfig, error)
	Close() error
}
