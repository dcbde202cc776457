package component

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()

// PendingDestroy marks an entity for teardown at the end of the physics step.
type PendingDestroy struct{}

var PendingDestroyComponent = NewComponent[PendingDestroy]()
