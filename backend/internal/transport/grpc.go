package transport

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/game"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/world"
)

// ServiceName полное имя gRPC сервиса
const ServiceName = "openmw.physics.Physics"

// PhysicsService серверная сторона сервиса физики
type PhysicsService interface {
	AddCharacter(context.Context, *AddCharacterRequest) (*CharacterState, error)
	RemoveCharacter(context.Context, *NameRequest) (*Empty, error)
	GetCharacter(context.Context, *NameRequest) (*CharacterState, error)
	SetCharacterState(context.Context, *SetCharacterStateRequest) (*CharacterState, error)
	PlaceObject(context.Context, *PlaceObjectRequest) (*PlaceObjectResponse, error)
	RemoveObject(context.Context, *NameRequest) (*Empty, error)
	RayTest(context.Context, *RayTestRequest) (*RayTestResponse, error)
	RayTestAll(context.Context, *RayTestRequest) (*RayTestAllResponse, error)
	SphereCast(context.Context, *SphereCastRequest) (*SphereCastResponse, error)
	Collisions(context.Context, *NameRequest) (*CollisionsResponse, error)
	StandingOn(context.Context, *NameRequest) (*StandingOnResponse, error)
	Step(context.Context, *StepRequest) (*StepResponse, error)
	GetConfig(context.Context, *Empty) (*PhysicsConfig, error)
	SetConfig(context.Context, *PhysicsConfig) (*PhysicsConfig, error)
}

// PhysicsServer выполняет запросы над миром через WorldHost
type PhysicsServer struct {
	host   *game.WorldHost
	logger *log.Logger
}

// NewPhysicsServer создает сервис поверх мира
func NewPhysicsServer(host *game.WorldHost, logger *log.Logger) *PhysicsServer {
	if logger == nil {
		logger = log.Default()
	}
	return &PhysicsServer{host: host, logger: logger}
}

// RegisterPhysicsServer регистрирует сервис на gRPC сервере
func RegisterPhysicsServer(s grpc.ServiceRegistrar, srv PhysicsService) {
	s.RegisterService(&physicsServiceDesc, srv)
}

// do выполняет fn над миром. Закрытый мир дает Unavailable.
func (s *PhysicsServer) do(ctx context.Context, fn func(w *physics.World) error) error {
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}
	var err error
	if !s.host.Do(func(w *physics.World) { err = fn(w) }) {
		return status.Error(codes.Unavailable, "physics world is closed")
	}
	return err
}

func requireName(name string) error {
	if name == "" {
		return status.Error(codes.InvalidArgument, "name is required")
	}
	return nil
}

func characterState(a *physics.Actor) *CharacterState {
	q := a.Rotation()
	return &CharacterState{
		Name:          a.Name(),
		Mesh:          a.Mesh(),
		Position:      a.Position(),
		Rotation:      [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		Scale:         a.Scale(),
		HalfExtents:   a.HalfExtents(),
		Capsule:       a.IsCapsule(),
		OnGround:      a.OnGround(),
		InertialForce: a.InertialForce(),
		CollisionMode: a.CollisionMode(),
		CollisionBody: a.CollisionBodyEnabled(),
	}
}

func scaleOrOne(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

func (s *PhysicsServer) AddCharacter(ctx context.Context, req *AddCharacterRequest) (*CharacterState, error) {
	if err := requireName(req.Name); err != nil {
		return nil, err
	}
	var out *CharacterState
	err := s.do(ctx, func(w *physics.World) error {
		a := w.AddCharacter(req.Name, req.Mesh, req.Position, scaleOrOne(req.Scale), world.EulerToQuat(req.Rotation))
		out = characterState(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[PhysicsServer] Добавлен персонаж %s (%s)", req.Name, req.Mesh)
	return out, nil
}

func (s *PhysicsServer) RemoveCharacter(ctx context.Context, req *NameRequest) (*Empty, error) {
	if err := requireName(req.Name); err != nil {
		return nil, err
	}
	err := s.do(ctx, func(w *physics.World) error {
		if w.GetCharacter(req.Name) == nil {
			return status.Errorf(codes.NotFound, "character %q not found", req.Name)
		}
		w.RemoveCharacter(req.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *PhysicsServer) GetCharacter(ctx context.Context, req *NameRequest) (*CharacterState, error) {
	var out *CharacterState
	err := s.do(ctx, func(w *physics.World) error {
		a := w.GetCharacter(req.Name)
		if a == nil {
			return status.Errorf(codes.NotFound, "character %q not found", req.Name)
		}
		out = characterState(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PhysicsServer) SetCharacterState(ctx context.Context, req *SetCharacterStateRequest) (*CharacterState, error) {
	var out *CharacterState
	err := s.do(ctx, func(w *physics.World) error {
		a := w.GetCharacter(req.Name)
		if a == nil {
			return status.Errorf(codes.NotFound, "character %q not found", req.Name)
		}
		if req.Scale != nil {
			if *req.Scale <= 0 {
				return status.Errorf(codes.InvalidArgument, "scale must be positive, got %v", *req.Scale)
			}
			a.SetScale(*req.Scale)
		}
		if req.Position != nil {
			a.SetPosition(*req.Position)
		}
		if req.Rotation != nil {
			a.SetRotation(world.EulerToQuat(*req.Rotation))
		}
		if req.InertialForce != nil {
			a.SetInertialForce(*req.InertialForce)
		}
		if req.OnGround != nil {
			a.SetOnGround(*req.OnGround)
		}
		if req.CollisionMode != nil {
			a.EnableCollisionMode(*req.CollisionMode)
		}
		if req.CollisionBody != nil {
			a.EnableCollisionBody(*req.CollisionBody)
		}
		out = characterState(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PhysicsServer) PlaceObject(ctx context.Context, req *PlaceObjectRequest) (*PlaceObjectResponse, error) {
	if err := requireName(req.Name); err != nil {
		return nil, err
	}
	placeable := true
	if req.Placeable != nil {
		placeable = *req.Placeable
	}
	scale := scaleOrOne(req.Scale)
	rot := world.EulerToQuat(req.Rotation)

	var out PlaceObjectResponse
	err := s.do(ctx, func(w *physics.World) error {
		solid := w.CreateAndAdjustRigidBody(req.Mesh, req.Name, scale, req.Position, rot, false, placeable)
		ray := w.CreateAndAdjustRigidBody(req.Mesh, req.Name, scale, req.Position, rot, true, placeable)
		if solid == nil && ray == nil {
			return status.Errorf(codes.NotFound, "mesh %q has no collision geometry", req.Mesh)
		}
		w.AddRigidBody(solid, true, ray)
		out = PlaceObjectResponse{Solid: solid != nil, Raycast: ray != nil}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PhysicsServer) RemoveObject(ctx context.Context, req *NameRequest) (*Empty, error) {
	err := s.do(ctx, func(w *physics.World) error {
		if w.GetRigidBody(req.Name, false) == nil && w.GetRigidBody(req.Name, true) == nil {
			return status.Errorf(codes.NotFound, "object %q not found", req.Name)
		}
		w.RemoveRigidBody(req.Name)
		w.DeleteRigidBody(req.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *PhysicsServer) RayTest(ctx context.Context, req *RayTestRequest) (*RayTestResponse, error) {
	raycastingOnly := true
	if req.RaycastingOnly != nil {
		raycastingOnly = *req.RaycastingOnly
	}
	var out RayTestResponse
	err := s.do(ctx, func(w *physics.World) error {
		res := w.RayTest(req.From, req.To, raycastingOnly, req.IgnoreHeightMap)
		out = RayTestResponse{Hit: res.Hit(), Name: res.Name, Fraction: res.Fraction, Normal: res.Normal}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PhysicsServer) RayTestAll(ctx context.Context, req *RayTestRequest) (*RayTestAllResponse, error) {
	out := &RayTestAllResponse{Hits: []RayHit{}}
	err := s.do(ctx, func(w *physics.World) error {
		for _, h := range w.RayTest2(req.From, req.To) {
			out.Hits = append(out.Hits, RayHit{Name: h.Name, Fraction: h.Fraction})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PhysicsServer) SphereCast(ctx context.Context, req *SphereCastRequest) (*SphereCastResponse, error) {
	if req.Radius <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "radius must be positive, got %v", req.Radius)
	}
	var out SphereCastResponse
	err := s.do(ctx, func(w *physics.World) error {
		out.Hit, out.Fraction = w.SphereCast(req.Radius, req.From, req.To)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PhysicsServer) Collisions(ctx context.Context, req *NameRequest) (*CollisionsResponse, error) {
	out := &CollisionsResponse{Names: []string{}}
	err := s.do(ctx, func(w *physics.World) error {
		if w.GetRigidBody(req.Name, false) == nil && w.GetRigidBody(req.Name, true) == nil {
			return status.Errorf(codes.NotFound, "object %q not found", req.Name)
		}
		out.Names = append(out.Names, w.GetCollisions(req.Name)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PhysicsServer) StandingOn(ctx context.Context, req *NameRequest) (*StandingOnResponse, error) {
	var out StandingOnResponse
	err := s.do(ctx, func(w *physics.World) error {
		out.Standing = w.IsAnyActorStandingOn(req.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PhysicsServer) Step(ctx context.Context, req *StepRequest) (*StepResponse, error) {
	if req.Dt < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "dt must not be negative, got %v", req.Dt)
	}
	var out StepResponse
	err := s.do(ctx, func(w *physics.World) error {
		out.Substeps = w.StepSimulation(req.Dt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func toPhysicsConfig(c *PhysicsConfig) physics.Config {
	return physics.Config{
		FixedTimeStep:         c.FixedTimeStep,
		MaxSubSteps:           c.MaxSubSteps,
		StandingProbeDistance: c.StandingProbeDistance,
		CapsuleTolerance:      c.CapsuleTolerance,
		SweepExcludedName:     c.SweepExcludedName,
		ContactThreshold:      c.ContactThreshold,
		Gravity:               c.Gravity,
	}
}

func fromPhysicsConfig(c physics.Config) *PhysicsConfig {
	return &PhysicsConfig{
		FixedTimeStep:         c.FixedTimeStep,
		MaxSubSteps:           c.MaxSubSteps,
		StandingProbeDistance: c.StandingProbeDistance,
		CapsuleTolerance:      c.CapsuleTolerance,
		SweepExcludedName:     c.SweepExcludedName,
		ContactThreshold:      c.ContactThreshold,
		Gravity:               c.Gravity,
	}
}

func (s *PhysicsServer) GetConfig(ctx context.Context, _ *Empty) (*PhysicsConfig, error) {
	var out *PhysicsConfig
	err := s.do(ctx, func(w *physics.World) error {
		out = fromPhysicsConfig(w.Config())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetConfig применяет конфигурацию и возвращает ее после нормализации
func (s *PhysicsServer) SetConfig(ctx context.Context, req *PhysicsConfig) (*PhysicsConfig, error) {
	var out *PhysicsConfig
	err := s.do(ctx, func(w *physics.World) error {
		w.SetConfig(toPhysicsConfig(req))
		out = fromPhysicsConfig(w.Config())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[PhysicsServer] Конфигурация физики обновлена: шаг %.4f, подшагов %d",
		out.FixedTimeStep, out.MaxSubSteps)
	return out, nil
}

// unaryHandler строит обработчик метода с типизированным запросом
func unaryHandler[Req any, Resp any](method string, call func(PhysicsService, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PhysicsService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PhysicsService), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var physicsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PhysicsService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddCharacter", Handler: unaryHandler("AddCharacter", PhysicsService.AddCharacter)},
		{MethodName: "RemoveCharacter", Handler: unaryHandler("RemoveCharacter", PhysicsService.RemoveCharacter)},
		{MethodName: "GetCharacter", Handler: unaryHandler("GetCharacter", PhysicsService.GetCharacter)},
		{MethodName: "SetCharacterState", Handler: unaryHandler("SetCharacterState", PhysicsService.SetCharacterState)},
		{MethodName: "PlaceObject", Handler: unaryHandler("PlaceObject", PhysicsService.PlaceObject)},
		{MethodName: "RemoveObject", Handler: unaryHandler("RemoveObject", PhysicsService.RemoveObject)},
		{MethodName: "RayTest", Handler: unaryHandler("RayTest", PhysicsService.RayTest)},
		{MethodName: "RayTestAll", Handler: unaryHandler("RayTestAll", PhysicsService.RayTestAll)},
		{MethodName: "SphereCast", Handler: unaryHandler("SphereCast", PhysicsService.SphereCast)},
		{MethodName: "Collisions", Handler: unaryHandler("Collisions", PhysicsService.Collisions)},
		{MethodName: "StandingOn", Handler: unaryHandler("StandingOn", PhysicsService.StandingOn)},
		{MethodName: "Step", Handler: unaryHandler("Step", PhysicsService.Step)},
		{MethodName: "GetConfig", Handler: unaryHandler("GetConfig", PhysicsService.GetConfig)},
		{MethodName: "SetConfig", Handler: unaryHandler("SetConfig", PhysicsService.SetConfig)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "openmw/physics.proto",
}

var _ PhysicsService = (*PhysicsServer)(nil)
