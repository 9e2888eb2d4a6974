package transport

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// PhysicsClient клиент сервиса физики поверх gRPC соединения
type PhysicsClient struct {
	conn *grpc.ClientConn
}

var _ IPhysicsClient = (*PhysicsClient)(nil)

// NewPhysicsClient создает клиент для адреса. Соединение устанавливается лениво,
// при первом вызове.
func NewPhysicsClient(address string, opts ...grpc.DialOption) (*PhysicsClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("transport: connect to physics server %s: %w", address, err)
	}
	log.Printf("[PhysicsClient] Клиент сервера физики создан: %s", address)
	return &PhysicsClient{conn: conn}, nil
}

// Close закрывает соединение с сервером
func (c *PhysicsClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *PhysicsClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *PhysicsClient) AddCharacter(ctx context.Context, req *AddCharacterRequest, opts ...grpc.CallOption) (*CharacterState, error) {
	out := new(CharacterState)
	if err := c.invoke(ctx, "AddCharacter", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) RemoveCharacter(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, "RemoveCharacter", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) GetCharacter(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*CharacterState, error) {
	out := new(CharacterState)
	if err := c.invoke(ctx, "GetCharacter", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) SetCharacterState(ctx context.Context, req *SetCharacterStateRequest, opts ...grpc.CallOption) (*CharacterState, error) {
	out := new(CharacterState)
	if err := c.invoke(ctx, "SetCharacterState", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) PlaceObject(ctx context.Context, req *PlaceObjectRequest, opts ...grpc.CallOption) (*PlaceObjectResponse, error) {
	out := new(PlaceObjectResponse)
	if err := c.invoke(ctx, "PlaceObject", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) RemoveObject(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, "RemoveObject", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) RayTest(ctx context.Context, req *RayTestRequest, opts ...grpc.CallOption) (*RayTestResponse, error) {
	out := new(RayTestResponse)
	if err := c.invoke(ctx, "RayTest", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) RayTestAll(ctx context.Context, req *RayTestRequest, opts ...grpc.CallOption) (*RayTestAllResponse, error) {
	out := new(RayTestAllResponse)
	if err := c.invoke(ctx, "RayTestAll", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) SphereCast(ctx context.Context, req *SphereCastRequest, opts ...grpc.CallOption) (*SphereCastResponse, error) {
	out := new(SphereCastResponse)
	if err := c.invoke(ctx, "SphereCast", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) Collisions(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*CollisionsResponse, error) {
	out := new(CollisionsResponse)
	if err := c.invoke(ctx, "Collisions", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) StandingOn(ctx context.Context, req *NameRequest, opts ...grpc.CallOption) (*StandingOnResponse, error) {
	out := new(StandingOnResponse)
	if err := c.invoke(ctx, "StandingOn", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) Step(ctx context.Context, req *StepRequest, opts ...grpc.CallOption) (*StepResponse, error) {
	out := new(StepResponse)
	if err := c.invoke(ctx, "Step", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) GetConfig(ctx context.Context, req *Empty, opts ...grpc.CallOption) (*PhysicsConfig, error) {
	out := new(PhysicsConfig)
	if err := c.invoke(ctx, "GetConfig", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PhysicsClient) SetConfig(ctx context.Context, req *PhysicsConfig, opts ...grpc.CallOption) (*PhysicsConfig, error) {
	out := new(PhysicsConfig)
	if err := c.invoke(ctx, "SetConfig", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
