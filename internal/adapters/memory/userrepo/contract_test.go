package userrepo

import (
	"testing"

	"github.com/sair-explore/quest-api/internal/adapters/contracttest"
	userrepoport "github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

func TestContract_MemoryUserRepo(t *testing.T) {
	t.Parallel()

	contracttest.RunUserRepo(t, func(t *testing.T) (userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
