package profilerepo

import (
	"testing"

	"github.com/legacy-registry/profile-api/internal/adapters/contracttest"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

func TestContract_ProfileRepo(t *testing.T) {
	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), memuserrepo.NewRepo(), nil
	})
}
