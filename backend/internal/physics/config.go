package physics

import "github.com/go-gl/mathgl/mgl64"

// Config настраиваемые константы физического мира
type Config struct {
	// FixedTimeStep длина одного подшага симуляции в секундах
	FixedTimeStep float64 `yaml:"fixed_time_step"`

	// MaxSubSteps максимум подшагов за один вызов StepSimulation
	MaxSubSteps int `yaml:"max_sub_steps"`

	// StandingProbeDistance длина луча вниз в IsAnyActorStandingOn
	StandingProbeDistance float64 `yaml:"standing_probe_distance"`

	// CapsuleTolerance допустимая относительная разница горизонтальных
	// полуразмеров персонажа, при которой он получает капсулу
	CapsuleTolerance float64 `yaml:"capsule_tolerance"`

	// SweepExcludedName тело, которое SphereCast пропускает
	SweepExcludedName string `yaml:"sweep_excluded_name"`

	// ContactThreshold наибольший зазор, который еще считается контактом
	ContactThreshold float64 `yaml:"contact_threshold"`

	// Gravity применяется логикой движения к персонажам в воздухе
	Gravity mgl64.Vec3 `yaml:"gravity"`
}

// DefaultConfig конфигурация по умолчанию
func DefaultConfig() Config {
	return Config{
		FixedTimeStep:         1.0 / 60.0,
		MaxSubSteps:           10,
		StandingProbeDistance: 5,
		CapsuleTolerance:      0.05,
		SweepExcludedName:     "player",
		ContactThreshold:      0,
		Gravity:               mgl64.Vec3{0, 0, -10},
	}
}

// normalized заменяет негодные значения значениями по умолчанию
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.FixedTimeStep <= 0 {
		c.FixedTimeStep = def.FixedTimeStep
	}
	if c.MaxSubSteps <= 0 {
		c.MaxSubSteps = def.MaxSubSteps
	}
	if c.StandingProbeDistance <= 0 {
		c.StandingProbeDistance = def.StandingProbeDistance
	}
	if c.CapsuleTolerance < 0 {
		c.CapsuleTolerance = def.CapsuleTolerance
	}
	if c.SweepExcludedName == "" {
		c.SweepExcludedName = def.SweepExcludedName
	}
	// Отрицательный порог отбросил бы касание
	if c.ContactThreshold < 0 {
		c.ContactThreshold = 0
	}
	return c
}
