// Package ordering decides the order in which model responses are shown.
package ordering

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
)

// Mode selects when the presentation order is re-drawn.
type Mode string

// Supported modes.
const (
	// PerView draws a new order every time an image is viewed.
	PerView Mode = "per_view"
	// PerSession keeps one order per user and image.
	PerSession Mode = "per_session"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case PerView, PerSession:
		return Mode(s), nil
	case "":
		return PerView, nil
	default:
		return "", fmt.Errorf("unknown shuffle mode %q", s)
	}
}

// Shuffle returns a permutation of [0, n) determined by seed.
func Shuffle(n int, seed uint64) []int {
	if n <= 0 {
		return []int{}
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r.Perm(n)
}

// Shuffler produces presentation orders according to a Mode.
type Shuffler struct {
	mode Mode
	seed func() uint64
}

// NewShuffler returns a Shuffler. Unknown modes fall back to PerView.
func NewShuffler(mode Mode) *Shuffler {
	if mode != PerSession {
		mode = PerView
	}
	return &Shuffler{mode: mode, seed: rand.Uint64}
}

// Mode reports the active mode.
func (s *Shuffler) Mode() Mode { return s.mode }

// Order returns the display order of n model responses for userID viewing idx.
func (s *Shuffler) Order(userID string, idx, n int) []int {
	if s.mode == PerSession {
		return Shuffle(n, SessionSeed(userID, idx))
	}
	return Shuffle(n, s.seed())
}

// SessionSeed derives a stable seed from a user and an image.
func SessionSeed(userID string, idx int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(idx)))
	return h.Sum64()
}
