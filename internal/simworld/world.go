package simworld

import (
	"context"
	"image"
	"image/color"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	m "autoplay.dev/pkg/autoplay/internal/model"
)

// Loop constants. These are the numbers the behavior-model parameters
// document; changing one here without updating the documented set breaks
// conformance, which is exactly what the oracle is for.
const (
	walkSpeed   = 2
	runSpeed    = 3
	jumpImpulse = 3
	contactX    = 10
	contactY    = 4
	stompScore  = 100
	pickupScore = 1000
	respawnWait = 30
	invulnWait  = 45

	// bootTicks is how long menu and load screens last after a reset.
	bootTicks = 5
)

type power int

const (
	powerSmall power = iota
	powerBig
	powerFire
)

type hazardState struct {
	spec  HazardSpec
	x     float64
	y     float64
	dir   float64
	alive bool
}

// World is one running level. All state is plain fields behind a cooperative
// Step/Read loop; nothing here is safe for concurrent use, matching the feed
// contract.
type World struct {
	level    Level
	checksum string

	tick uint64
	boot int

	x, y       float64
	velX, velY float64
	grounded   bool
	crouching  bool
	shooting   bool
	pow        power

	dead      bool
	deadTicks int
	invuln    int

	score       int
	lives       int
	timer       int
	goalReached bool

	hazards []hazardState
}

var _ adapter.GameFeed = (*World)(nil)
var _ adapter.FrameSource = (*World)(nil)

// New builds a world at the level's spawn point, still on the load screen.
func New(level Level) *World {
	w := &World{level: level, checksum: level.Checksum()}
	w.restart()

	return w
}

func (w *World) restart() {
	w.tick = 0
	w.boot = bootTicks
	w.x, w.y = 0, 0
	w.velX, w.velY = 0, 0
	w.grounded = true
	w.crouching = false
	w.shooting = false
	w.pow = powerSmall
	w.dead = false
	w.deadTicks = 0
	w.invuln = 0
	w.score = 0
	w.lives = w.level.StartLives
	w.timer = w.level.StartTimer
	w.goalReached = false

	w.hazards = make([]hazardState, len(w.level.Hazards))
	for i, spec := range w.level.Hazards {
		w.hazards[i] = hazardState{spec: spec, x: spec.X, y: spec.Y, dir: 1, alive: true}
	}
}

// Reset restarts the level from spawn, including the load screen.
func (w *World) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.restart()

	return nil
}

// Step advances exactly one tick with the given controls held.
func (w *World) Step(ctx context.Context, held []m.Control) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.tick++

	switch {
	case w.boot > 0:
		w.boot--
	case w.goalReached:
		// Level complete: the loop idles.
	case w.dead:
		w.stepDead()
	default:
		w.stepLive(held)
	}

	return nil
}

func (w *World) stepDead() {
	if w.deadTicks > 0 {
		w.deadTicks--
	}

	if w.deadTicks == 0 && w.lives > 0 {
		w.respawn()
	}
}

func (w *World) respawn() {
	w.dead = false
	w.x, w.y = 0, 0
	w.velX, w.velY = 0, 0
	w.grounded = true
	w.crouching = false
	w.shooting = false
	w.pow = powerSmall
	w.invuln = 0
}

// stepLive is the live-entity tick. Order matters and is observable: timer,
// then contact checks at the pre-move position, then movement, then the
// post-move pit and goal checks, then hazard patrols.
func (w *World) stepLive(held []m.Control) {
	w.timer--
	if w.timer <= 0 {
		w.kill()
		return
	}

	if enemy, stomp := w.enemyContact(); enemy != nil {
		if stomp {
			enemy.alive = false
			w.score += stompScore
		} else if w.invuln == 0 {
			if !w.hit() {
				return
			}
		}
	}

	if item := w.powerupContact(); item != nil {
		item.alive = false
		w.score += pickupScore

		if w.pow < powerFire {
			w.pow++
		}
	}

	holding := func(c m.Control) bool {
		for _, h := range held {
			if h == c {
				return true
			}
		}

		return false
	}

	// Horizontal motion, clamped at the left level boundary.
	w.velX = 0
	if !(holding(m.ControlCrouch) && w.grounded) {
		speed := float64(walkSpeed)
		if holding(m.ControlRun) {
			speed = runSpeed
		}

		switch {
		case holding(m.ControlRight):
			w.velX = speed
		case holding(m.ControlLeft):
			w.velX = -speed
			if w.x+w.velX < 0 {
				w.velX = -w.x
			}
		}
	}

	w.x += w.velX

	// Vertical motion. The reported velocity is next tick's displacement,
	// so gravity applies after the move.
	if w.grounded && holding(m.ControlJump) {
		w.y = jumpImpulse
		w.velY = jumpImpulse - 1
		w.grounded = false
	} else if !w.grounded {
		w.y += w.velY
		w.velY--
	}

	if w.y <= 0 {
		if w.overPit(w.x) {
			w.kill()
			return
		}

		if !w.grounded {
			w.y = 0
			w.velY = 0
			w.grounded = true
		}
	}

	if w.x >= w.level.GoalX {
		w.goalReached = true
		w.velX, w.velY = 0, 0
	}

	w.crouching = holding(m.ControlCrouch) && w.grounded
	w.shooting = w.pow == powerFire && holding(m.ControlRun) && w.grounded && !w.crouching

	w.patrolHazards()

	if w.invuln > 0 {
		w.invuln--
	}
}

func (w *World) kill() {
	w.dead = true
	w.deadTicks = respawnWait
	w.lives--
	w.velX, w.velY = 0, 0
	w.crouching = false
	w.shooting = false
	w.invuln = 0
	w.pow = powerSmall
}

// hit applies enemy damage: powered entities lose one power step and gain an
// invulnerability window, small ones die. Returns false when the hit killed.
func (w *World) hit() bool {
	if w.pow == powerSmall {
		w.kill()
		return false
	}

	w.pow--
	// One extra tick compensates the countdown at the end of this tick,
	// so the window reads as a full invulnWait ticks from outside.
	w.invuln = invulnWait + 1

	return true
}

func (w *World) enemyContact() (*hazardState, bool) {
	for i := range w.hazards {
		h := &w.hazards[i]
		if !h.alive || (h.spec.Kind != m.HazardWalker && h.spec.Kind != m.HazardFlyer) {
			continue
		}

		dx := w.x - h.x
		if dx < 0 {
			dx = -dx
		}

		if dx > contactX || w.y > contactY {
			continue
		}

		stomp := w.velY < 0 && w.y > 0

		return h, stomp
	}

	return nil, false
}

func (w *World) powerupContact() *hazardState {
	for i := range w.hazards {
		h := &w.hazards[i]
		if !h.alive || h.spec.Kind != m.HazardPowerup {
			continue
		}

		dx := w.x - h.x
		if dx < 0 {
			dx = -dx
		}

		if dx <= contactX && w.y <= contactY {
			return h
		}
	}

	return nil
}

func (w *World) overPit(x float64) bool {
	for _, h := range w.hazards {
		if h.spec.Kind != m.HazardPit {
			continue
		}

		half := h.spec.Width / 2
		if x > h.x-half && x < h.x+half {
			return true
		}
	}

	return false
}

func (w *World) patrolHazards() {
	for i := range w.hazards {
		h := &w.hazards[i]
		if !h.alive || h.spec.Speed == 0 {
			continue
		}

		h.x += h.dir * h.spec.Speed
		if h.x <= h.spec.PatrolMin {
			h.x = h.spec.PatrolMin
			h.dir = 1
		} else if h.x >= h.spec.PatrolMax {
			h.x = h.spec.PatrolMax
			h.dir = -1
		}
	}
}

// Read returns the state computed by the last Step.
func (w *World) Read() adapter.RawState {
	hazards := make([]m.Hazard, 0, len(w.hazards))
	for _, h := range w.hazards {
		hazards = append(hazards, m.Hazard{
			Kind:  h.spec.Kind,
			X:     h.x,
			Y:     h.y,
			Width: h.spec.Width,
			Alive: h.alive,
		})
	}

	return adapter.RawState{
		Tick:          w.tick,
		Level:         w.level.Name,
		LevelChecksum: w.checksum,
		GoalX:         w.level.GoalX,
		PlayerX:       w.x,
		PlayerY:       w.y,
		VelX:          w.velX,
		VelY:          w.velY,
		Big:           w.pow >= powerBig,
		Fire:          w.pow == powerFire,
		Dead:          w.dead,
		Invulnerable:  w.invuln > 0,
		Grounded:      w.grounded,
		Crouching:     w.crouching,
		Shooting:      w.shooting,
		InLevel:       w.boot == 0,
		Transitioning: w.boot == 1,
		Score:         w.score,
		Lives:         w.lives,
		Timer:         w.timer,
		GoalReached:   w.goalReached,
		Hazards:       hazards,
	}
}

// Frame renders the current tick as a small side-view image for the GIF
// recorder. Purely cosmetic.
func (w *World) Frame() image.Image {
	const (
		width   = 320
		height  = 80
		groundY = 64
	)

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	sky := color.RGBA{R: 110, G: 160, B: 220, A: 255}
	ground := color.RGBA{R: 90, G: 70, B: 40, A: 255}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y >= groundY {
				img.Set(x, y, ground)
			} else {
				img.Set(x, y, sky)
			}
		}
	}

	scale := float64(width) / w.level.GoalX

	for _, h := range w.hazards {
		switch h.spec.Kind {
		case m.HazardPit:
			half := h.spec.Width / 2
			fillRect(img, int((h.x-half)*scale), groundY, int(h.spec.Width*scale), height-groundY, sky)
		case m.HazardPowerup:
			if h.alive {
				fillRect(img, int(h.x*scale)-2, groundY-6, 4, 4, color.RGBA{R: 240, G: 60, B: 60, A: 255})
			}
		default:
			if h.alive {
				fillRect(img, int(h.x*scale)-3, groundY-6-int(h.y), 6, 6, color.RGBA{R: 60, G: 150, B: 60, A: 255})
			}
		}
	}

	fillRect(img, int(w.x*scale)-3, groundY-8-int(w.y), 6, 8, color.RGBA{R: 230, G: 50, B: 50, A: 255})

	return img
}

func fillRect(img *image.RGBA, x, y, wd, ht int, c color.Color) {
	for dy := 0; dy < ht; dy++ {
		for dx := 0; dx < wd; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}
