package discord

import (
	"fmt"
	"strings"
)

const ComponentIDPrefix = "y:"

type ComponentIDSource string
type ComponentIDAction string

const (
	ComponentSourceResult = ComponentIDSource("result")

	ComponentActionSwapReference = ComponentIDAction("swap_reference")
)

type ComponentID struct {
	// Source is the message the component lives on, ie: "result"
	Source ComponentIDSource

	// Action is what the component should do, ie: "swap_reference"
	Action ComponentIDAction
}

var (
	ErrComponentIDInvalidPrefix = fmt.Errorf("invalid component id prefix")
	ErrComponentIDInvalidParts  = fmt.Errorf("incorrect number of parts in component id")
)

func ParseComponentID(id string) (*ComponentID, error) {
	id, found := strings.CutPrefix(id, ComponentIDPrefix)
	if !found {
		return nil, ErrComponentIDInvalidPrefix
	}

	parts := strings.Split(id, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrComponentIDInvalidParts
	}

	return &ComponentID{
		Source: ComponentIDSource(parts[0]),
		Action: ComponentIDAction(parts[1]),
	}, nil
}

func (c *ComponentID) String() string {
	return ComponentIDPrefix + string(c.Source) + ":" + string(c.Action)
}

func ComponentIDString(source ComponentIDSource, action ComponentIDAction) string {
	componentID := &ComponentID{
		Source: source,
		Action: action,
	}
	return componentID.String()
}
