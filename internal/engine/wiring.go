package engine

import (
	"fmt"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// wire connects viewer interactions back to the model and the selection.
func (e *Engine) wire() {
	toggle := func(ev core.Event) error {
		return e.selection.Toggle(ev.ID)
	}
	e.unsubscribe = append(e.unsubscribe,
		e.bus.Subscribe(core.KindPoint, core.ActionClick, toggle),
		e.bus.Subscribe(core.KindItem, core.ActionClick, toggle),
		e.bus.Subscribe(core.KindPoint, core.ActionDrag, e.onDrag),
	)
}

// onDrag writes a dragged point's position into the model.
func (e *Engine) onDrag(ev core.Event) error {
	c, ok := ev.Value.(core.LatLon)
	if !ok {
		return fmt.Errorf("drag of %s carries %T, want core.LatLon", ev.ID, ev.Value)
	}
	return e.registry.SetCoordinates(ev.ID, c)
}
