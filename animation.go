package guraffic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TrackProperty is the transform property an AnimationTrack drives.
type TrackProperty int

const (
	TrackPosition TrackProperty = iota
	TrackScale
	TrackRotation
)

func (tp TrackProperty) String() string {
	switch tp {
	case TrackPosition:
		return "position"
	case TrackScale:
		return "scale"
	case TrackRotation:
		return "rotation"
	}
	return fmt.Sprintf("TrackProperty(%d)", int(tp))
}

// ParseTrackProperty returns the TrackProperty with the provided name ("position", "scale" or "rotation").
func ParseTrackProperty(name string) (TrackProperty, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "position", "pos":
		return TrackPosition, nil
	case "scale", "sca":
		return TrackScale, nil
	case "rotation", "rot":
		return TrackRotation, nil
	}
	return TrackPosition, fmt.Errorf("%q: %w", name, ErrUnknownProperty)
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
	"in-out-expo":  ease.InOutExpo,
	"out-bounce":   ease.OutBounce,
}

// ParseEasing returns the easing function with the provided name, such as "linear" or "in-out-sine". An empty name
// is linear.
func ParseEasing(name string) (ease.TweenFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ease.Linear, nil
	}
	if fn, ok := easings[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownEasing)
}

// Keyframe is a value an AnimationTrack passes through at a given time. Vector is used by position and scale tracks,
// and Rotation by rotation tracks. Easing shapes the interpolation from the previous keyframe into this one; nil is
// linear.
type Keyframe struct {
	Time     float64
	Vector   mgl64.Vec3
	Rotation mgl64.Quat
	Easing   ease.TweenFunc
}

// AnimationTrack animates one property of one entity. Target is the path to the entity, relative to the root the
// animation is played on (an empty path is the root itself).
type AnimationTrack struct {
	Target    string
	Property  TrackProperty
	Keyframes []Keyframe
}

// AddKeyframe adds a keyframe to the track, keeping keyframes sorted by time.
func (track *AnimationTrack) AddKeyframe(key Keyframe) {
	track.Keyframes = append(track.Keyframes, key)
	sort.SliceStable(track.Keyframes, func(i, j int) bool { return track.Keyframes[i].Time < track.Keyframes[j].Time })
}

// Length returns the time of the track's last keyframe.
func (track *AnimationTrack) Length() float64 {
	if len(track.Keyframes) == 0 {
		return 0
	}
	return track.Keyframes[len(track.Keyframes)-1].Time
}

// sample returns the track's keyframe pair and eased interpolation factor at the given time.
func (track *AnimationTrack) sample(time float64) (Keyframe, Keyframe, float64) {

	keys := track.Keyframes

	if first := keys[0]; time <= first.Time {
		return first, first, 0
	} else if last := keys[len(keys)-1]; time >= last.Time {
		return last, last, 0
	}

	next := sort.Search(len(keys), func(i int) bool { return keys[i].Time > time })
	from, to := keys[next-1], keys[next]

	t := (time - from.Time) / (to.Time - from.Time)
	if to.Easing != nil {
		t = float64(to.Easing(float32(t), 0, 1, 1))
	}

	return from, to, t

}

// VectorAt returns the interpolated vector value of the track at the given time.
func (track *AnimationTrack) VectorAt(time float64) mgl64.Vec3 {
	if len(track.Keyframes) == 0 {
		return mgl64.Vec3{}
	}
	from, to, t := track.sample(time)
	return from.Vector.Add(to.Vector.Sub(from.Vector).Mul(t))
}

// RotationAt returns the interpolated rotation of the track at the given time.
func (track *AnimationTrack) RotationAt(time float64) mgl64.Quat {
	if len(track.Keyframes) == 0 {
		return mgl64.QuatIdent()
	}
	from, to, t := track.sample(time)
	if t == 0 {
		return from.Rotation
	}
	return Slerp(from.Rotation, to.Rotation, t)
}

// Animation is a named set of tracks played together.
type Animation struct {
	Name   string
	Tracks []*AnimationTrack
}

// NewAnimation creates a new, empty Animation.
func NewAnimation(name string) *Animation {
	return &Animation{Name: name}
}

// AddTrack adds a new track to the animation and returns it.
func (animation *Animation) AddTrack(target string, property TrackProperty) *AnimationTrack {
	track := &AnimationTrack{Target: target, Property: property}
	animation.Tracks = append(animation.Tracks, track)
	return track
}

// Length returns the length of the animation's longest track.
func (animation *Animation) Length() float64 {
	length := 0.0
	for _, t := range animation.Tracks {
		if l := t.Length(); l > length {
			length = l
		}
	}
	return length
}

// FinishMode determines what an AnimationPlayer does when it reaches the end of its animation.
type FinishMode int

const (
	FinishModeLoop     FinishMode = iota // Loop on animation completion
	FinishModePingPong                   // Reverse on animation completion; OnFinish is called after a full there-and-back
	FinishModeStop                       // Stop on animation completion
)

// ParseFinishMode returns the FinishMode with the provided name ("loop", "pingpong" or "stop").
func ParseFinishMode(name string) (FinishMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "loop":
		return FinishModeLoop, nil
	case "pingpong", "ping-pong":
		return FinishModePingPong, nil
	case "stop":
		return FinishModeStop, nil
	}
	return FinishModeLoop, fmt.Errorf("finish mode %q: %w", name, ErrMalformedFile)
}

// AnimationPlayer plays an Animation on a hierarchy of entities. The playhead is driven by a tween, and every
// property it writes goes through the Graph's setters, so animated entities (and their descendants) are
// invalidated like any other change.
type AnimationPlayer struct {
	graph *Graph
	root  Handle

	Animation  *Animation
	PlaySpeed  float64 // Defaults to 1.
	FinishMode FinishMode
	Playing    bool
	OnFinish   func()

	tween    *gween.Tween
	playhead float64
	reverse  bool
	targets  []Handle
}

// NewAnimationPlayer creates an AnimationPlayer rooted at the provided entity.
func NewAnimationPlayer(graph *Graph, root Handle) *AnimationPlayer {
	graph.entity(root)
	return &AnimationPlayer{
		graph:     graph,
		root:      root,
		PlaySpeed: 1,
	}
}

// Handle returns the root entity the player's track targets are resolved against.
func (ap *AnimationPlayer) Handle() Handle {
	return ap.root
}

// Playhead returns the current time within the animation.
func (ap *AnimationPlayer) Playhead() float64 {
	return ap.playhead
}

// Play starts playing the animation from the beginning. Every track's target has to exist under the player's root.
func (ap *AnimationPlayer) Play(animation *Animation) error {

	targets := make([]Handle, len(animation.Tracks))

	for i, track := range animation.Tracks {
		target := ap.graph.Get(ap.root, track.Target)
		if target.IsNil() {
			return fmt.Errorf("animation %q: track target %q under %q: %w", animation.Name, track.Target, ap.graph.Name(ap.root), ErrUnknownEntity)
		}
		targets[i] = target
	}

	ap.Animation = animation
	ap.targets = targets
	ap.reverse = false
	ap.playhead = 0
	ap.Playing = true
	ap.resetTween()

	return ap.apply()

}

func (ap *AnimationPlayer) resetTween() {
	length := float32(ap.Animation.Length())
	if length <= 0 {
		ap.tween = nil
	} else if ap.reverse {
		ap.tween = gween.New(length, 0, length, ease.Linear)
	} else {
		ap.tween = gween.New(0, length, length, ease.Linear)
	}
}

// Update advances the playhead by dt seconds (scaled by PlaySpeed) and writes the animated values to the target
// entities. It stops at the first value the Graph rejects.
func (ap *AnimationPlayer) Update(dt float64) error {

	if !ap.Playing || ap.Animation == nil {
		return nil
	}

	step := dt * ap.PlaySpeed
	if step < 0 {
		step = 0
	}

	finished := true
	if ap.tween != nil {
		var current float32
		current, finished = ap.tween.Update(float32(step))
		ap.playhead = float64(current)
	}

	if err := ap.apply(); err != nil {
		return err
	}

	if finished {

		switch ap.FinishMode {

		case FinishModeLoop:
			ap.resetTween()
			ap.playhead = 0
			if ap.OnFinish != nil {
				ap.OnFinish()
			}

		case FinishModePingPong:
			ap.reverse = !ap.reverse
			ap.resetTween()
			if !ap.reverse && ap.OnFinish != nil {
				ap.OnFinish()
			}

		case FinishModeStop:
			ap.Playing = false
			if ap.OnFinish != nil {
				ap.OnFinish()
			}

		}

	}

	return nil

}

func (ap *AnimationPlayer) apply() error {

	for i, track := range ap.Animation.Tracks {

		if len(track.Keyframes) == 0 {
			continue
		}

		target := ap.targets[i]
		if !ap.graph.Valid(target) {
			return fmt.Errorf("animation %q: track target %q was destroyed: %w", ap.Animation.Name, track.Target, ErrUnknownEntity)
		}

		var err error

		switch track.Property {
		case TrackPosition:
			err = ap.graph.SetPosition(target, track.VectorAt(ap.playhead))
		case TrackScale:
			err = ap.graph.SetScaleVec(target, track.VectorAt(ap.playhead))
		case TrackRotation:
			err = ap.graph.SetRotation(target, track.RotationAt(ap.playhead))
		}

		if err != nil {
			return fmt.Errorf("animation %q: %w", ap.Animation.Name, err)
		}

	}

	return nil

}
