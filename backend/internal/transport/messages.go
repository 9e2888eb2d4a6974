package transport

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Empty пустой запрос или ответ
type Empty struct{}

// NameRequest запрос по имени тела или персонажа
type NameRequest struct {
	Name string `json:"name"`
}

// AddCharacterRequest создание персонажа. Rotation - углы Эйлера в градусах.
type AddCharacterRequest struct {
	Name     string     `json:"name"`
	Mesh     string     `json:"mesh"`
	Position mgl64.Vec3 `json:"position"`
	Scale    float64    `json:"scale,omitempty"`
	Rotation mgl64.Vec3 `json:"rotation,omitempty"`
}

// CharacterState состояние персонажа. Rotation - кватернион (w, x, y, z).
type CharacterState struct {
	Name          string     `json:"name"`
	Mesh          string     `json:"mesh"`
	Position      mgl64.Vec3 `json:"position"`
	Rotation      [4]float64 `json:"rotation"`
	Scale         float64    `json:"scale"`
	HalfExtents   mgl64.Vec3 `json:"half_extents"`
	Capsule       bool       `json:"capsule"`
	OnGround      bool       `json:"on_ground"`
	InertialForce mgl64.Vec3 `json:"inertial_force"`
	CollisionMode bool       `json:"collision_mode"`
	CollisionBody bool       `json:"collision_body"`
}

// SetCharacterStateRequest меняет только заданные поля
type SetCharacterStateRequest struct {
	Name          string      `json:"name"`
	Position      *mgl64.Vec3 `json:"position,omitempty"`
	Rotation      *mgl64.Vec3 `json:"rotation,omitempty"`
	Scale         *float64    `json:"scale,omitempty"`
	InertialForce *mgl64.Vec3 `json:"inertial_force,omitempty"`
	OnGround      *bool       `json:"on_ground,omitempty"`
	CollisionMode *bool       `json:"collision_mode,omitempty"`
	CollisionBody *bool       `json:"collision_body,omitempty"`
}

// PlaceObjectRequest размещение статического объекта
type PlaceObjectRequest struct {
	Name      string     `json:"name"`
	Mesh      string     `json:"mesh"`
	Scale     float64    `json:"scale,omitempty"`
	Position  mgl64.Vec3 `json:"position"`
	Rotation  mgl64.Vec3 `json:"rotation,omitempty"`
	Placeable *bool      `json:"placeable,omitempty"`
}

// PlaceObjectResponse какие тела были созданы
type PlaceObjectResponse struct {
	Solid   bool `json:"solid"`
	Raycast bool `json:"raycast"`
}

// RayTestRequest луч. Без RaycastingOnly проверяются тела для лучей и персонажи.
type RayTestRequest struct {
	From            mgl64.Vec3 `json:"from"`
	To              mgl64.Vec3 `json:"to"`
	RaycastingOnly  *bool      `json:"raycasting_only,omitempty"`
	IgnoreHeightMap bool       `json:"ignore_height_map,omitempty"`
}

// RayTestResponse ближайшее попадание
type RayTestResponse struct {
	Hit      bool       `json:"hit"`
	Name     string     `json:"name,omitempty"`
	Fraction float64    `json:"fraction"`
	Normal   mgl64.Vec3 `json:"normal"`
}

// RayHit одно попадание луча
type RayHit struct {
	Name     string  `json:"name"`
	Fraction float64 `json:"fraction"`
}

// RayTestAllResponse все попадания по возрастанию доли пути
type RayTestAllResponse struct {
	Hits []RayHit `json:"hits"`
}

// SphereCastRequest проход сферы
type SphereCastRequest struct {
	Radius float64    `json:"radius"`
	From   mgl64.Vec3 `json:"from"`
	To     mgl64.Vec3 `json:"to"`
}

// SphereCastResponse результат прохода сферы
type SphereCastResponse struct {
	Hit      bool    `json:"hit"`
	Fraction float64 `json:"fraction"`
}

// CollisionsResponse имена касающихся тел
type CollisionsResponse struct {
	Names []string `json:"names"`
}

// StandingOnResponse стоит ли на объекте персонаж
type StandingOnResponse struct {
	Standing bool `json:"standing"`
}

// StepRequest шаг симуляции в секундах
type StepRequest struct {
	Dt float64 `json:"dt"`
}

// StepResponse число выполненных подшагов
type StepResponse struct {
	Substeps int `json:"substeps"`
}

// PhysicsConfig настраиваемые параметры мира
type PhysicsConfig struct {
	FixedTimeStep         float64    `json:"fixed_time_step"`
	MaxSubSteps           int        `json:"max_sub_steps"`
	StandingProbeDistance float64    `json:"standing_probe_distance"`
	CapsuleTolerance      float64    `json:"capsule_tolerance"`
	SweepExcludedName     string     `json:"sweep_excluded_name"`
	ContactThreshold      float64    `json:"contact_threshold"`
	Gravity               mgl64.Vec3 `json:"gravity"`
}
