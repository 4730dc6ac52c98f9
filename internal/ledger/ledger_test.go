package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"go-retail-pos/internal/database"
	"go-retail-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return New(db), db
}

func email(s string) *string { return &s }

func TestCreateEnforcesUniqueness(t *testing.T) {
	customers, _ := newTestLedger(t)
	ctx := context.Background()

	first := &models.Customer{Name: "Sara", Phone: "555-0001", Email: email("sara@example.com")}
	require.NoError(t, customers.Create(ctx, first))

	// Same phone
	err := customers.Create(ctx, &models.Customer{Name: "Imposter", Phone: "555-0001"})
	assert.ErrorIs(t, err, ErrDuplicateContact)

	// Same email, different phone
	err = customers.Create(ctx, &models.Customer{Name: "Imposter", Phone: "555-0002", Email: email("sara@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateContact)

	// No email at all is fine, repeatedly
	require.NoError(t, customers.Create(ctx, &models.Customer{Name: "Walk-in A", Phone: "555-0003"}))
	require.NoError(t, customers.Create(ctx, &models.Customer{Name: "Walk-in B", Phone: "555-0004"}))
}

func TestLookups(t *testing.T) {
	customers, _ := newTestLedger(t)
	ctx := context.Background()

	created := &models.Customer{Name: "Omar", Phone: "555-0100", Email: email("omar@example.com")}
	require.NoError(t, customers.Create(ctx, created))

	byID, err := customers.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Omar", byID.Name)

	byPhone, err := customers.GetByPhone(ctx, "555-0100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhone.ID)

	byEmail, err := customers.GetByEmail(ctx, "omar@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = customers.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	_, err = customers.GetByPhone(ctx, "none")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestAccrueIsAdditiveOnly(t *testing.T) {
	customers, db := newTestLedger(t)
	ctx := context.Background()

	created := &models.Customer{Name: "Lina", Phone: "555-0200"}
	require.NoError(t, customers.Create(ctx, created))

	require.NoError(t, customers.Accrue(ctx, created.ID, 4, 47.0))
	require.NoError(t, customers.Accrue(ctx, created.ID, 0, 9.99))

	var after models.Customer
	require.NoError(t, db.First(&after, created.ID).Error)
	assert.Equal(t, 4, after.LoyaltyPoints)
	assert.InDelta(t, 56.99, after.TotalPurchases, 1e-9)

	// Negative accrual is out of scope and rejected outright
	assert.ErrorIs(t, customers.Accrue(ctx, created.ID, -1, 5), ErrNegativeAccrual)
	assert.ErrorIs(t, customers.Accrue(ctx, created.ID, 1, -5), ErrNegativeAccrual)
	assert.ErrorIs(t, customers.Accrue(ctx, 999, 1, 1), ErrCustomerNotFound)
}

func TestListFilters(t *testing.T) {
	customers, _ := newTestLedger(t)
	ctx := context.Background()

	seed := []*models.Customer{
		{Name: "Sara Ahmed", Phone: "555-0001", CustomerType: "vip"},
		{Name: "Omar Ali", Phone: "555-0002", CustomerType: "regular"},
		{Name: "Lina Saad", Phone: "777-0003", CustomerType: "vip"},
	}
	for _, customer := range seed {
		require.NoError(t, customers.Create(ctx, customer))
	}

	vips, err := customers.List(ctx, ListFilter{CustomerType: "vip"})
	require.NoError(t, err)
	assert.Len(t, vips, 2)

	byPhone, err := customers.List(ctx, ListFilter{Search: "555-"})
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)

	byName, err := customers.List(ctx, ListFilter{Search: "Sara"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Sara Ahmed", byName[0].Name)
}
