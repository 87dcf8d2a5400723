package core

import (
	"github.com/google/uuid"

	"pkt.systems/termdeck/schema"
)

func newPaneID() schema.PaneID {
	return schema.PaneID("pane-" + uuid.NewString())
}
