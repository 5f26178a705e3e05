package ecs

// Topics the registry publishes on its event bus. Entity topics carry an
// EntityEvent payload, component topics a ComponentEvent.
const (
	TopicEntityCreated     = "entityCreated"
	TopicEntityActivated   = "entityActivated"
	TopicEntityDeactivated = "entityDeactivated"
	TopicEntityReaped      = "entityReaped"
	TopicComponentAdded    = "componentAdded"
	TopicComponentRemoved  = "componentRemoved"
)

// EntityEvent is the payload for entity lifecycle topics. During
// entityReaped the handle is still readable; it goes stale (or back to
// its pool) when the dispatch returns.
type EntityEvent struct {
	Entity EntityID
}

// ComponentEvent is the payload for componentAdded and componentRemoved.
type ComponentEvent struct {
	Entity EntityID
	Kind   Kind
}
