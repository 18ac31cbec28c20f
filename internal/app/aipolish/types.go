package aipolish

import (
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/polisher"
)

const (
	MinBioLength = 20
	MaxBioLength = 2000
)

type PolishInput struct {
	Bio  string
	Tone string
	// Tier is used only when the caller has no profile yet.
	Tier string
}

type PolishResult struct {
	PolishedBio string
	Tone        polisher.Tone
	Usage       Usage
}

type Usage struct {
	Tier      domain.Tier
	Used      int
	Limit     int
	Remaining int
	ResetsAt  time.Time
}

type StatusResult struct {
	Available bool
	Usage
}
