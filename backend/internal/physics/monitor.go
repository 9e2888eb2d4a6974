package physics

import "time"

// Monitor получает статистику симуляции и запросов
type Monitor interface {
	RecordStep(substeps int, elapsed time.Duration)
	RecordQuery(kind string, hit bool)
}

// Виды запросов для Monitor.RecordQuery
const (
	QueryRayTest         = "ray_test"
	QueryRayTestAll      = "ray_test_all"
	QuerySphereCast      = "sphere_cast"
	QueryCollisions      = "collisions"
	QueryFilteredContact = "filtered_contact"
	QueryStandingOn      = "standing_on"
)

type nopMonitor struct{}

func (nopMonitor) RecordStep(int, time.Duration) {}
func (nopMonitor) RecordQuery(string, bool)      {}
