package planar

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/locomotion/physics"
	"go.uber.org/zap"
)

// bridge adapts a physics.Constraint to chipmunk's constraint class: the
// per-step hook maps to PreStep and each solver iteration to ApplyImpulse.
type bridge struct {
	c physics.Constraint
}

var _ cp.Constrainer = (*bridge)(nil)

func (br *bridge) PreStep(dt float64) {
	br.c.Prepare(dt)
}

func (br *bridge) ApplyCachedImpulse(float64) {}

func (br *bridge) ApplyImpulse(float64) {
	br.c.Iterate()
}

func (br *bridge) GetImpulse() float64 {
	return 0
}

// AddConstraint registers c with the solver, tied to owner and the static
// world body. Owners from another backend are rejected.
func (s *Space) AddConstraint(owner physics.Body, c physics.Constraint) {
	if _, exists := s.bridges[c]; exists {
		return
	}
	b, ok := owner.(*Body)
	if !ok || b.space != s {
		s.log.Error("constraint owner is not a body of this space", zap.Any("owner", owner))
		return
	}
	cons := cp.NewConstraint(&bridge{c: c}, b.body, s.space.StaticBody)
	s.space.AddConstraint(cons)
	s.bridges[c] = cons
	s.owners[c] = b
}

func (s *Space) RemoveConstraint(c physics.Constraint) {
	cons, ok := s.bridges[c]
	if !ok {
		return
	}
	s.space.RemoveConstraint(cons)
	delete(s.bridges, c)
	delete(s.owners, c)
}

// Constraints returns the number of registered constraints.
func (s *Space) Constraints() int {
	return len(s.bridges)
}
