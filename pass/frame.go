package pass

import (
	"context"

	"github.com/plus3/callstate/state"
)

// Frame describes the pass currently being rendered.
type Frame struct {
	Number    uint64
	DeltaTime float64
	Commands  *Commands
	Store     *state.Store
}

func newFrame(number uint64, dt float64, store *state.Store) *Frame {
	return &Frame{
		Number:    number,
		DeltaTime: dt,
		Commands:  newCommands(),
		Store:     store,
	}
}

type frameKey struct{}

func withFrame(ctx context.Context, f *Frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

// FrameFromContext returns the frame of the pass ctx belongs to.
func FrameFromContext(ctx context.Context) (*Frame, bool) {
	f, ok := ctx.Value(frameKey{}).(*Frame)
	return f, ok
}
