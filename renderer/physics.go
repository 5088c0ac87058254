package renderer

import "time"

// physicsController is a fixed-rate tick limiter. There is no simulation
// behind it; it paces how often the renderer requests structure updates.
type physicsController struct {
	tickInterval time.Duration
	lastUpdate   time.Time
}

func newPhysicsController(ticksPerSecond uint32) *physicsController {
	return &physicsController{
		tickInterval: time.Second / time.Duration(ticksPerSecond),
		lastUpdate:   time.Now(),
	}
}

// requestStep reports whether a tick is due and, if so, consumes it.
func (p *physicsController) requestStep() bool {
	if time.Since(p.lastUpdate) <= p.tickInterval {
		return false
	}
	p.lastUpdate = time.Now()
	return true
}
