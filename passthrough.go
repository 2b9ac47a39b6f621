package framecadence

import "time"

// passthroughMode forwards every processed frame to the consumer in the same
// queue task that decremented the pending count.
type passthroughMode struct {
	adapter *Adapter
}

func (p *passthroughMode) onFrame(postTime time.Time, framesPending int, frame VideoFrame) {
	if p.adapter.callback == nil {
		return
	}
	p.adapter.callback.OnFrame(p.adapter.clock.Now(), framesPending, frame)
}
