package orderrepo

import (
	"testing"

	"github.com/legacy-registry/profile-api/internal/adapters/contracttest"
	memprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/memory/profilerepo"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	orderrepoport "github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

func TestContract_OrderRepo(t *testing.T) {
	contracttest.RunOrderRepo(t, func(t *testing.T) (orderrepoport.Repository, profilerepoport.Repository, userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), memprofilerepo.NewRepo(), memuserrepo.NewRepo(), nil
	})
}
