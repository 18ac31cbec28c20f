package profilerepo

import (
	"testing"

	"github.com/legacy-registry/profile-api/internal/adapters/contracttest"
	pguserrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/userrepo"
	"github.com/legacy-registry/profile-api/internal/adapters/postgres/testutil"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

func TestContract_PostgresProfileRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	issuer := "https://issuer.test"

	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), pguserrepo.NewRepo(pool, issuer), nil
	})
}
