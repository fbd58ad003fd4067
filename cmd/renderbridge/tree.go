package main

import (
	"context"
	"log/slog"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// defaultNodeSize is reported for axes without a usable constraint.
var defaultNodeSize = protocol.MeasureResult{Width: 100, Height: 20}

// treeDelegate keeps the created nodes of one session in memory. It stands
// in for a native view hierarchy when the server runs without one.
type treeDelegate struct {
	logger  *slog.Logger
	nodes   map[int32]protocol.Value
	pending int // mutations applied in the open batch
	batches int
}

func newTreeDelegate(logger *slog.Logger) *treeDelegate {
	return &treeDelegate{
		logger: logger,
		nodes:  make(map[int32]protocol.Value),
	}
}

// nodeID reads the numeric id of a node record or a bare id.
func nodeID(v protocol.Value) (int32, bool) {
	if v.Kind == protocol.KindMap {
		id, ok := v.Get("id")
		if !ok {
			return 0, false
		}
		v = id
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, false
	}
	return int32(n), true
}

func (d *treeDelegate) StartBatch(ctx context.Context) error {
	d.pending = 0
	return nil
}

func (d *treeDelegate) CreateNode(ctx context.Context, nodes []protocol.Value) error {
	for _, n := range nodes {
		if id, ok := nodeID(n); ok {
			d.nodes[id] = n
		}
	}
	d.pending += len(nodes)
	return nil
}

func (d *treeDelegate) UpdateNode(ctx context.Context, nodes []protocol.Value) error {
	for _, n := range nodes {
		id, ok := nodeID(n)
		if !ok {
			continue
		}
		if _, exists := d.nodes[id]; !exists {
			d.logger.Warn("update for unknown node", "node_id", id)
			continue
		}
		d.nodes[id] = n
	}
	d.pending += len(nodes)
	return nil
}

func (d *treeDelegate) DeleteNode(ctx context.Context, ids []protocol.Value) error {
	for _, v := range ids {
		if id, ok := nodeID(v); ok {
			delete(d.nodes, id)
		}
	}
	d.pending += len(ids)
	return nil
}

func (d *treeDelegate) UpdateLayout(ctx context.Context, layouts []protocol.Value) error {
	d.pending += len(layouts)
	return nil
}

func (d *treeDelegate) UpdateEventListener(ctx context.Context, changes []protocol.Value) error {
	d.pending += len(changes)
	return nil
}

func (d *treeDelegate) UpdateRenderEventListener(ctx context.Context, changes []protocol.Value) error {
	d.pending += len(changes)
	return nil
}

func (d *treeDelegate) EndBatch(ctx context.Context) error {
	d.batches++
	d.logger.Debug("batch applied",
		"batch", d.batches,
		"mutations", d.pending,
		"nodes", len(d.nodes),
	)
	return nil
}

// AbortBatch drops the count of an abandoned batch. Mutations it already
// applied stay in the tree.
func (d *treeDelegate) AbortBatch(ctx context.Context) error {
	d.logger.Warn("batch abandoned", "mutations", d.pending, "nodes", len(d.nodes))
	d.pending = 0
	return nil
}

func (d *treeDelegate) Measure(ctx context.Context, req protocol.MeasureRequest) (protocol.MeasureResult, error) {
	return protocol.MeasureResult{
		Width:  constrain(defaultNodeSize.Width, req.Width, req.WidthMode),
		Height: constrain(defaultNodeSize.Height, req.Height, req.HeightMode),
	}, nil
}

func constrain(size, limit float32, mode protocol.MeasureMode) float32 {
	switch mode {
	case protocol.MeasureExactly:
		return limit
	case protocol.MeasureAtMost:
		return min(size, limit)
	}
	return size
}
