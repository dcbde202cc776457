package component

import "github.com/milk9111/locomotion/motion"

// Motion drives an entity's body through a motion adapter. Set Reload after
// editing Config or AdapterConfig to push the new tuning into a live adapter.
type Motion struct {
	Config        motion.Config
	AdapterConfig motion.AdapterConfig
	Reload        bool

	Adapter *motion.Adapter
}

var MotionComponent = NewComponent[Motion]()
