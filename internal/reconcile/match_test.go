package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciler/internal/models"
)

func TestFindMatch(t *testing.T) {
	transactions := []models.Transaction{
		{ID: "txn-1", InteractionID: "tr_AAA", State: models.StatePending},
		{ID: "txn-2", InteractionID: "tr_BBB", State: models.StateSuccess},
	}

	t.Run("match found", func(t *testing.T) {
		tx, found := FindMatch("tr_BBB", transactions)
		require.True(t, found)
		assert.Equal(t, "txn-2", tx.ID)
	})

	t.Run("no match", func(t *testing.T) {
		tx, found := FindMatch("tr_CCC", transactions)
		assert.False(t, found)
		assert.Nil(t, tx)
	})

	t.Run("empty list", func(t *testing.T) {
		tx, found := FindMatch("tr_AAA", nil)
		assert.False(t, found)
		assert.Nil(t, tx)
	})
}
