package screen

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-scenes/internal/humastar"
	"github.com/joeblew999/plat-scenes/internal/service"
)

// Events streams a re-render to the page after every write to its view-model.
func (h *Handler) Events(ctx context.Context, input *ScreenInput) (*huma.StreamResponse, error) {
	m, err := h.model(input.Screen)
	if err != nil {
		return nil, err
	}
	bus := h.screens.Bus()
	if bus == nil {
		return nil, huma.Error503ServiceUnavailable("events not available")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := bus.Subscribe(m.Screen())
			defer bus.Unsubscribe(ch)

			if h.metrics != nil {
				h.metrics.EventStreams.Inc()
				defer h.metrics.EventStreams.Dec()
			}
			h.log.Debug("event stream opened", "screen", m.Screen())
			defer h.log.Debug("event stream closed", "screen", m.Screen())

			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					switch ev.Kind {
					case service.ChangeViewport:
						sse.Signals(ViewportSignals(m.Viewport()))
						h.renderSelection(sse, m)
					case service.ChangeSelection:
						h.renderSelection(sse, m)
					case service.ChangeClosed:
						sse.Error("Screen closed, reload the page")
						return
					}
					sse.DispatchCustomEvent("screen-changed", map[string]any{
						"screen": ev.Screen,
						"kind":   ev.Kind,
					})
					if h.metrics != nil {
						h.metrics.EventsDelivered.Inc()
					}
				}
			}
		},
	}, nil
}
