// Package ebitenview runs a guraffic Scene in an ebiten window: it maps keyboard and mouse state to guraffic.Input,
// steps the scene, draws frames with a software Renderer, and shows the inspector overlay.
package ebitenview

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	guraffic "github.com/jonathanharg/guraffic-park"
)

const helpText = "Click: capture mouse, Esc: release, WASD/Space/Shift+Space: move, Wheel: orbit zoom\n" +
	"Tab: next camera, F1: overlay, F2: wireframe, [ ]: select, F3: edit field, arrows , .: nudge, H: hide, Q: quit"

// Game implements ebiten.Game for a guraffic Scene.
type Game struct {
	Scene     *guraffic.Scene
	Config    guraffic.Config
	Inspector *guraffic.Inspector
	Renderer  *Renderer

	ShowOverlay bool

	// Reloads, if set, delivers new scene descriptions (see guraffic.WatchSceneFile); Build turns them into scenes.
	// A description that fails to parse or build leaves the current scene running.
	Reloads <-chan guraffic.SceneUpdate
	Build   func(desc *guraffic.SceneDesc) (*guraffic.Scene, error)

	input    inputReader
	viewport guraffic.Viewport
	status   string
	err      error
}

// NewGame creates a Game showing the scene with the provided config.
func NewGame(scene *guraffic.Scene, cfg guraffic.Config) *Game {
	game := &Game{
		Config:      cfg,
		Renderer:    NewRenderer(),
		ShowOverlay: true,
		viewport:    cfg.Viewport(),
	}
	game.setScene(scene)
	return game
}

func (game *Game) setScene(scene *guraffic.Scene) {
	game.Scene = scene
	game.Inspector = guraffic.NewInspector(scene)
}

// Run opens the window and runs the game until it's closed or quit with Q.
func Run(game *Game) error {

	ebiten.SetWindowSize(game.Config.Window.Width, game.Config.Window.Height)
	ebiten.SetWindowTitle(game.Config.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if game.Config.Controls.StartCaptured {
		game.input.setCaptured(true)
	}

	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		return err
	}

	return nil

}

// Update implements ebiten.Game.
func (game *Game) Update() error {

	if game.err != nil {
		return game.err
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	game.pollReloads()
	game.handleKeys()

	dt := 1 / float64(ebiten.TPS())

	if err := game.Scene.Update(game.input.read(), dt); err != nil {
		return err
	}

	return nil

}

func (game *Game) pollReloads() {

	if game.Reloads == nil || game.Build == nil {
		return
	}

	select {

	case update := <-game.Reloads:

		if update.Err != nil {
			game.status = "Reload failed: " + update.Err.Error()
			return
		}

		scene, err := game.Build(update.Desc)
		if err != nil {
			guraffic.Logger().Warn("scene didn't build; keeping the current scene", "file", update.Path, "error", err)
			game.status = "Reload failed: " + err.Error()
			return
		}

		game.setScene(scene)
		game.status = "Reloaded " + update.Path
		guraffic.Logger().Info("reloaded scene", "file", update.Path, "entities", scene.Graph.Len())

	default:
	}

}

func (game *Game) handleKeys() {

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		game.ShowOverlay = !game.ShowOverlay
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		game.Renderer.Wireframe = !game.Renderer.Wireframe
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if cam := game.Inspector.NextCamera(); cam != nil {
			game.status = "Camera: " + cam.Name()
		}
	}

	ins := game.Inspector

	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		ins.SelectNext()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		ins.SelectPrevious()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		ins.NextField()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		game.report(ins.ToggleVisible())
	}

	nudges := []struct {
		key   ebiten.Key
		axis  int
		steps float64
	}{
		{ebiten.KeyArrowLeft, 0, -1},
		{ebiten.KeyArrowRight, 0, 1},
		{ebiten.KeyArrowDown, 1, -1},
		{ebiten.KeyArrowUp, 1, 1},
		{ebiten.KeyComma, 2, -1},
		{ebiten.KeyPeriod, 2, 1},
	}

	for _, n := range nudges {
		if inpututil.IsKeyJustPressed(n.key) {
			game.report(ins.Nudge(n.axis, n.steps))
		}
	}

}

// report shows an edit the graph rejected (such as a zero scale) without stopping the game.
func (game *Game) report(err error) {
	if err != nil {
		game.status = err.Error()
	}
}

// Draw implements ebiten.Game.
func (game *Game) Draw(screen *ebiten.Image) {

	frame, err := game.Scene.Frame(game.viewport)
	if err != nil {
		screen.Fill(color.Black)
		text.Draw(screen, err.Error(), basicfont.Face7x13, 8, 20, color.White)
		return
	}

	game.Renderer.Target = screen
	if err := game.Renderer.Render(frame); err != nil {
		game.err = fmt.Errorf("render: %w", err)
		return
	}

	if game.ShowOverlay {
		game.drawOverlay(screen)
	}

}

func (game *Game) drawOverlay(screen *ebiten.Image) {

	lines := []string{
		fmt.Sprintf("FPS: %.1f  TPS: %.1f  Triangles: %d", ebiten.ActualFPS(), ebiten.ActualTPS(), game.Renderer.Triangles),
	}
	lines = append(lines, game.Inspector.Lines()...)
	if game.status != "" {
		lines = append(lines, game.status)
	}
	lines = append(lines, "", helpText)

	text.Draw(screen, strings.Join(lines, "\n"), basicfont.Face7x13, 8, 16, color.White)

}

// Layout implements ebiten.Game. The viewport follows the window size, so resizing doesn't stretch the view.
func (game *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	game.viewport.Width = outsideWidth
	game.viewport.Height = outsideHeight
	return outsideWidth, outsideHeight
}
