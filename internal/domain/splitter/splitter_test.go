package splitter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubledger/reconcile/internal/domain/linking"
	"github.com/clubledger/reconcile/internal/domain/model"
)

func parentTx(amount string) *model.Transaction {
	return &model.Transaction{
		ID:            "parent",
		Amount:        decimal.RequireFromString(amount),
		Date:          time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC),
		Counterparty:  "DUPONT FAMILLE",
		Communication: "souper 3 pers",
		AccountNumber: "BE71096123456769",
	}
}

func amounts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func sum(children []*model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, c := range children {
		total = total.Add(c.Amount)
	}
	return total
}

func TestSplitEqual(t *testing.T) {
	t.Run("even division", func(t *testing.T) {
		parent := parentTx("21.00")

		children, err := SplitEqual(parent, 3)

		require.NoError(t, err)
		require.Len(t, children, 3)
		for _, c := range children {
			assert.True(t, c.Amount.Equal(decimal.RequireFromString("7")))
			assert.Equal(t, "parent", c.ParentTransactionID)
			assert.Equal(t, parent.Date, c.Date)
			assert.Equal(t, parent.Counterparty, c.Counterparty)
			assert.Equal(t, parent.Communication, c.Communication)
			assert.NotEmpty(t, c.ID)
			assert.False(t, c.IsParent)
		}
		assert.True(t, parent.IsParent)
		assert.NotEqual(t, children[0].ID, children[1].ID)
	})

	t.Run("rounding cents go to the last part", func(t *testing.T) {
		children, err := SplitEqual(parentTx("10.00"), 3)

		require.NoError(t, err)
		assert.Equal(t, "3.33", children[0].Amount.StringFixed(2))
		assert.Equal(t, "3.33", children[1].Amount.StringFixed(2))
		assert.Equal(t, "3.34", children[2].Amount.StringFixed(2))
		assert.True(t, sum(children).Equal(decimal.RequireFromString("10")))
	})

	t.Run("negative amounts", func(t *testing.T) {
		children, err := SplitEqual(parentTx("-100.00"), 3)

		require.NoError(t, err)
		assert.Equal(t, "-33.33", children[0].Amount.StringFixed(2))
		assert.Equal(t, "-33.34", children[2].Amount.StringFixed(2))
		assert.True(t, sum(children).Equal(decimal.RequireFromString("-100")))
	})
}

func TestSplit(t *testing.T) {
	t.Run("explicit amounts", func(t *testing.T) {
		parent := parentTx("30.00")

		children, err := Split(parent, amounts("7.00", "7.00", "16.00"))

		require.NoError(t, err)
		require.Len(t, children, 3)
		assert.Equal(t, "16.00", children[2].Amount.StringFixed(2))
		assert.True(t, parent.IsParent)
	})

	t.Run("sum mismatch", func(t *testing.T) {
		parent := parentTx("30.00")

		_, err := Split(parent, amounts("7.00", "7.00", "15.99"))

		assert.ErrorIs(t, err, ErrAmountMismatch)
		assert.False(t, parent.IsParent, "a rejected split leaves the parent untouched")
	})

	t.Run("sign mismatch", func(t *testing.T) {
		_, err := Split(parentTx("30.00"), amounts("40.00", "-10.00"))
		assert.ErrorIs(t, err, ErrPartSign)
	})

	t.Run("zero part", func(t *testing.T) {
		_, err := Split(parentTx("30.00"), amounts("30.00", "0"))
		assert.ErrorIs(t, err, ErrPartSign)
	})
}

func TestSplitProRata(t *testing.T) {
	parent := parentTx("100.00")

	children, err := SplitProRata(parent, amounts("1", "1", "1"))

	require.NoError(t, err)
	assert.True(t, sum(children).Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "33.34", children[0].Amount.StringFixed(2), "rounding goes to the largest part")

	t.Run("weights follow payable prices", func(t *testing.T) {
		children, err := SplitProRata(parentTx("27.00"), amounts("7.00", "20.00"))

		require.NoError(t, err)
		assert.Equal(t, "7.00", children[0].Amount.StringFixed(2))
		assert.Equal(t, "20.00", children[1].Amount.StringFixed(2))
	})

	t.Run("non-positive weight", func(t *testing.T) {
		_, err := SplitProRata(parentTx("27.00"), amounts("7.00", "0"))
		assert.ErrorIs(t, err, ErrPartSign)
	})
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(*model.Transaction)
		count   int
		wantErr error
	}{
		{"already split", func(tx *model.Transaction) { tx.IsParent = true }, 2, ErrAlreadySplit},
		{"child", func(tx *model.Transaction) { tx.ParentTransactionID = "p0" }, 2, ErrChildTransaction},
		{"linked", func(tx *model.Transaction) {
			tx.MatchedEntities = []model.MatchedEntity{{EntityType: model.EntityRegistration, EntityID: "r1"}}
		}, 2, ErrLinkedParent},
		{"legacy reference", func(tx *model.Transaction) { tx.EventID = "evt1" }, 2, ErrLinkedParent},
		{"one part", func(*model.Transaction) {}, 1, ErrPartCount},
		{"too many parts", func(*model.Transaction) {}, MaxParts + 1, ErrPartCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := parentTx("30.00")
			tt.arrange(tx)

			err := Check(tx, tt.count)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, linking.IsValidation(err))
		})
	}
}
