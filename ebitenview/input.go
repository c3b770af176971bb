package ebitenview

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	guraffic "github.com/jonathanharg/guraffic-park"
)

// inputReader turns ebiten's device state into guraffic.Input values, one per tick.
type inputReader struct {
	captured   bool
	lastCursor mgl64.Vec2
	primed     bool
}

// setCaptured captures or releases the mouse. The first cursor reading after a change is discarded so the jump
// doesn't register as mouse movement.
func (in *inputReader) setCaptured(captured bool) {
	in.captured = captured
	in.primed = false
	if captured {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
	} else {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
	}
}

func (in *inputReader) read() guraffic.Input {

	if !in.captured && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		in.setCaptured(true)
	} else if in.captured && inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		in.setCaptured(false)
	}

	mx, my := ebiten.CursorPosition()
	cursor := mgl64.Vec2{float64(mx), float64(my)}

	var delta mgl64.Vec2
	if in.primed {
		delta = cursor.Sub(in.lastCursor)
	}
	in.lastCursor = cursor
	in.primed = true

	_, wheel := ebiten.Wheel()

	return guraffic.Input{
		MouseDelta: delta,
		Wheel:      wheel,
		Captured:   in.captured,
		Forward:    ebiten.IsKeyPressed(ebiten.KeyW),
		Back:       ebiten.IsKeyPressed(ebiten.KeyS),
		Left:       ebiten.IsKeyPressed(ebiten.KeyA),
		Right:      ebiten.IsKeyPressed(ebiten.KeyD),
		Up:         ebiten.IsKeyPressed(ebiten.KeySpace) && !ebiten.IsKeyPressed(ebiten.KeyShift),
		Down:       ebiten.IsKeyPressed(ebiten.KeySpace) && ebiten.IsKeyPressed(ebiten.KeyShift),
	}

}
