package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"screenkit/pkg/input"
	"screenkit/pkg/render"
	"screenkit/pkg/viewport"
)

type Action int

const (
	ActionNone Action = iota
	ActionStretch
	ActionKeepAspectRatio
	ActionKeepSize
	ActionDoNothing
	ActionToggleFullScreen
	ActionCopyFrame
	ActionCopyGeometry
	ActionSaveFrame
	ActionClose
)

var actionNames = map[Action]string{
	ActionNone:             "none",
	ActionStretch:          "stretch",
	ActionKeepAspectRatio:  "keep aspect ratio",
	ActionKeepSize:         "keep size",
	ActionDoNothing:        "do nothing",
	ActionToggleFullScreen: "toggle full screen",
	ActionCopyFrame:        "copy frame",
	ActionCopyGeometry:     "copy geometry",
	ActionSaveFrame:        "save frame",
	ActionClose:            "close",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Host is the part of a screen the controller drives.
type Host interface {
	InitialSize() (int, int)
	SetResizeBehavior(b viewport.Behavior)
	ResizeBehavior() viewport.Behavior
	SetFullScreen(fullScreen bool)
	IsFullScreen() bool
	Geometry() viewport.Geometry
	Close()
}

// Controller owns the demo scene. It is a Drawable, a pointer listener and a
// key listener at once.
type Controller struct {
	host   Host
	theme  Theme
	keys   map[input.Key]Action
	logger *slog.Logger

	mu       sync.Mutex
	scene    Scene
	grabX    int
	grabY    int
	message  string
	handlers map[Action]func() error
}

func NewController(host Host, theme Theme, keys map[input.Key]Action, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	w, h := host.InitialSize()
	size := min(w, h) / 4
	c := &Controller{
		host:     host,
		theme:    theme,
		keys:     keys,
		logger:   logger.With("component", "controller"),
		handlers: map[Action]func() error{},
	}
	c.scene = Scene{BoxX: (w - size) / 2, BoxY: (h - theme.StatusH - size) / 2, BoxSize: size}
	c.scene.Clamp(ComputeLayout(w, h, theme))
	return c
}

// Bind attaches fn to an action the controller cannot perform on its own,
// such as exporting the frame.
func (c *Controller) Bind(a Action, fn func() error) {
	c.mu.Lock()
	c.handlers[a] = fn
	c.mu.Unlock()
}

func (c *Controller) Scene() Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

func (c *Controller) Draw(fb *render.FrameBuffer) {
	c.mu.Lock()
	scene := c.scene
	msg := c.message
	c.mu.Unlock()

	scene.Status = fmt.Sprintf("%s  %s", c.host.ResizeBehavior(), FormatSize(c.host.Geometry()))
	if msg != "" {
		scene.Status += "  | " + msg
	}
	DrawScene(fb, scene, c.theme)
}

func (c *Controller) OnButton(x, y int, button input.Button, pressed bool) {
	if button != input.ButtonLeft {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !pressed {
		c.scene.Dragging = false
		return
	}
	if c.scene.BoxContains(x, y) {
		c.scene.Dragging = true
		c.grabX, c.grabY = x-c.scene.BoxX, y-c.scene.BoxY
	}
}

func (c *Controller) OnMove(x, y int, button input.Button, dragging bool) {
	w, h := c.host.InitialSize()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.CursorX, c.scene.CursorY = x, y
	c.scene.CursorInside = x >= 0 && y >= 0 && x < w && y < h
	if c.scene.Dragging && dragging {
		c.scene.BoxX, c.scene.BoxY = x-c.grabX, y-c.grabY
		c.scene.Clamp(ComputeLayout(w, h, c.theme))
	}
}

// OnWheel grows the box for positive steps and shrinks it for negative ones.
func (c *Controller) OnWheel(x, y, steps int) {
	w, h := c.host.InitialSize()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.BoxSize += steps * 4
	c.scene.Clamp(ComputeLayout(w, h, c.theme))
}

func (c *Controller) OnKey(code input.Key, pressed bool) {
	if !pressed {
		return
	}
	a, ok := c.keys[code]
	if !ok {
		return
	}
	if err := c.Do(a); err != nil {
		c.logger.Warn("action failed", "action", a, "err", err)
		c.setMessage(fmt.Sprintf("%s failed: %v", a, err))
	}
}

// Do performs a. Errors come only from bound handlers.
func (c *Controller) Do(a Action) error {
	switch a {
	case ActionNone:
		return nil
	case ActionStretch:
		c.setBehavior(viewport.Stretch)
	case ActionKeepAspectRatio:
		c.setBehavior(viewport.KeepAspectRatio)
	case ActionKeepSize:
		c.setBehavior(viewport.KeepSize)
	case ActionDoNothing:
		c.setBehavior(viewport.DoNothing)
	case ActionToggleFullScreen:
		c.host.SetFullScreen(!c.host.IsFullScreen())
	case ActionClose:
		c.host.Close()
	default:
		c.mu.Lock()
		fn := c.handlers[a]
		c.mu.Unlock()
		if fn == nil {
			c.logger.Debug("no handler bound", "action", a)
			return nil
		}
		if err := fn(); err != nil {
			return err
		}
		c.setMessage(a.String())
	}
	return nil
}

func (c *Controller) setBehavior(b viewport.Behavior) {
	c.host.SetResizeBehavior(b)
	c.setMessage("")
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	c.message = msg
	c.mu.Unlock()
}

// FormatSize renders the canvas and render sizes as "canvas 800x600 render 800x450".
func FormatSize(g viewport.Geometry) string {
	return fmt.Sprintf("canvas %dx%d render %dx%d", g.CanvasW, g.CanvasH, g.RenderW, g.RenderH)
}

// FormatGeometry is the one-line form copied to the clipboard.
func FormatGeometry(g viewport.Geometry) string {
	return fmt.Sprintf("behavior=%s initial=%dx%d canvas=%dx%d render=%dx%d+%d+%d scale=%.3fx%.3f",
		g.Behavior, g.InitialW, g.InitialH, g.CanvasW, g.CanvasH,
		g.RenderW, g.RenderH, g.RenderX, g.RenderY, g.ScaleX, g.ScaleY)
}
