package polisher

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("ai provider rate limited")
	// ErrContentPolicy indicates the provider refused the input or output.
	ErrContentPolicy = errors.New("ai content policy violation")
	// ErrUnavailable indicates the provider is not configured or failed.
	ErrUnavailable = errors.New("ai provider unavailable")
)

type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneWarm          Tone = "warm"
	ToneInspirational Tone = "inspirational"
	ToneFormal        Tone = "formal"
)

func Tones() []Tone {
	return []Tone{ToneProfessional, ToneWarm, ToneInspirational, ToneFormal}
}

type Request struct {
	Bio  string
	Tone Tone
}

// Polisher rewrites a biography in the requested tone.
type Polisher interface {
	Polish(ctx context.Context, req Request) (string, error)
}
