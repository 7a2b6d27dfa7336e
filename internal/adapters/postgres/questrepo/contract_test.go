package questrepo

import (
	"testing"

	"github.com/sair-explore/quest-api/internal/adapters/contracttest"
	"github.com/sair-explore/quest-api/internal/adapters/postgres/testutil"
	questrepoport "github.com/sair-explore/quest-api/internal/ports/out/questrepo"
)

func TestContract_PostgresQuestRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunQuestRepo(t, func(t *testing.T) (questrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
