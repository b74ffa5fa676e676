package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	analyterepo "github.com/kelplabs/pricebook/internal/analyte/repository"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	auditrepo "github.com/kelplabs/pricebook/internal/audit/repository"
	auditservice "github.com/kelplabs/pricebook/internal/audit/service"
	"github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/kelplabs/pricebook/internal/kit/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type kitFixture struct {
	svc domain.Service
	db  *gorm.DB

	ph     int64 // standard, active
	tds    int64 // standard, active
	metals int64 // tiered, active
	closed int64 // standard, inactive
}

func setupKitService(t *testing.T) *kitFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&analytedomain.Analyte{}, &domain.TestKit{}, &auditdomain.AuditEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Repo:        repository.Provide(),
		AnalyteRepo: analyterepo.Provide(),
		Audit:       audit,
	})

	f := &kitFixture{svc: svc, db: db}
	f.ph = seedAnalyte(t, db, "pH", analytedomain.PricingStandard, true)
	f.tds = seedAnalyte(t, db, "Total Dissolved Solids", analytedomain.PricingStandard, true)
	f.metals = seedAnalyte(t, db, "Total Metals", analytedomain.PricingTiered, true)
	f.closed = seedAnalyte(t, db, "Retired", analytedomain.PricingStandard, false)
	return f
}

func seedAnalyte(t *testing.T, db *gorm.DB, name string, pricingType analytedomain.PricingType, active bool) int64 {
	t.Helper()
	a := analytedomain.Analyte{
		Name:        name,
		Category:    "Inorganics",
		Price:       decimal.NewFromInt(25),
		Active:      active,
		PricingType: pricingType,
	}
	if pricingType == analytedomain.PricingTiered {
		a.Category = "Metals"
		a.AdditionalPrice = decimal.NewFromInt(45)
		a.MetalList = "As, Pb"
	}
	require.NoError(t, db.Create(&a).Error)
	return a.ID
}

func (f *kitFixture) auditEntries(t *testing.T) []auditdomain.AuditEntry {
	t.Helper()
	var entries []auditdomain.AuditEntry
	require.NoError(t, f.db.Order("id asc").Find(&entries).Error)
	return entries
}

func validRequest(f *kitFixture) domain.InsertRequest {
	return domain.InsertRequest{
		KitName:         "Homeowner Well Water Kit",
		Category:        "Drinking Water",
		DiscountPercent: decimal.NewFromInt(10),
		AnalyteIDs:      []int64{f.ph, f.tds, f.metals},
		MetalCounts:     map[int64]int{f.metals: 8},
	}
}

func TestInsert_PersistsMembersAndCounts(t *testing.T) {
	f := setupKitService(t)

	kit, err := f.svc.Insert(context.Background(), validRequest(f))
	require.NoError(t, err)
	assert.True(t, kit.Active)

	stored, err := f.svc.Get(context.Background(), kit.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.ph, f.tds, f.metals}, []int64(stored.AnalyteIDs))
	assert.Equal(t, map[int64]int{f.metals: 8}, stored.MetalCounts())

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, auditdomain.TableTestKits, entries[0].Table)
	assert.Equal(t, auditdomain.Insert, entries[0].ChangeType)
}

func TestInsert_Validation(t *testing.T) {
	f := setupKitService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*domain.InsertRequest)
		wantErr error
	}{
		{"empty name", func(r *domain.InsertRequest) { r.KitName = "" }, domain.ErrInvalidField},
		{"discount above 100", func(r *domain.InsertRequest) { r.DiscountPercent = decimal.NewFromInt(101) }, domain.ErrInvalidField},
		{"negative discount", func(r *domain.InsertRequest) { r.DiscountPercent = decimal.NewFromInt(-1) }, domain.ErrInvalidField},
		{"no members", func(r *domain.InsertRequest) { r.AnalyteIDs = nil; r.MetalCounts = nil }, domain.ErrInvalidField},
		{"duplicate member", func(r *domain.InsertRequest) { r.AnalyteIDs = append(r.AnalyteIDs, f.ph) }, domain.ErrInvariant},
		{"unknown member", func(r *domain.InsertRequest) { r.AnalyteIDs = append(r.AnalyteIDs, 9999) }, domain.ErrInvariant},
		{"inactive member", func(r *domain.InsertRequest) { r.AnalyteIDs = append(r.AnalyteIDs, f.closed) }, domain.ErrInvariant},
		{"count on non-tiered", func(r *domain.InsertRequest) { r.MetalCounts[f.ph] = 3 }, domain.ErrInvariant},
		{"count below one", func(r *domain.InsertRequest) { r.MetalCounts[f.metals] = 0 }, domain.ErrInvariant},
		{"count for non-member", func(r *domain.InsertRequest) { r.MetalCounts[9999] = 2 }, domain.ErrInvariant},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(f)
			tc.mutate(&req)
			_, err := f.svc.Insert(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Failed inserts leave no kit rows and no audit entries.
	kits, err := f.svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, kits)
	assert.Empty(t, f.auditEntries(t))
}

// Member lists audit as ordered JSON arrays and metal counts as objects with
// numerically sorted keys, so identical changes always serialise identically.
func TestUpdate_DeterministicAuditSerialization(t *testing.T) {
	f := setupKitService(t)
	ctx := context.Background()

	kit, err := f.svc.Insert(ctx, validRequest(f))
	require.NoError(t, err)

	members := []int64{f.ph, f.metals}
	counts := map[int64]int{f.metals: 4}
	_, err = f.svc.Update(ctx, kit.ID, domain.UpdateRequest{
		AnalyteIDs:  &members,
		MetalCounts: &counts,
	})
	require.NoError(t, err)

	byField := map[string]auditdomain.AuditEntry{}
	for _, e := range f.auditEntries(t)[1:] {
		byField[e.FieldName] = e
	}

	idsEntry, ok := byField["analyte_ids"]
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("[%d,%d,%d]", f.ph, f.tds, f.metals), idsEntry.OldValue)
	assert.Equal(t, fmt.Sprintf("[%d,%d]", f.ph, f.metals), idsEntry.NewValue)

	countsEntry, ok := byField["metal_counts"]
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf(`{"%d":8}`, f.metals), countsEntry.OldValue)
	assert.Equal(t, fmt.Sprintf(`{"%d":4}`, f.metals), countsEntry.NewValue)
}

func TestUpdate_NoOpAppendsNothing(t *testing.T) {
	f := setupKitService(t)
	ctx := context.Background()

	kit, err := f.svc.Insert(ctx, validRequest(f))
	require.NoError(t, err)
	before := f.auditEntries(t)

	name := kit.KitName
	_, err = f.svc.Update(ctx, kit.ID, domain.UpdateRequest{KitName: &name})
	require.NoError(t, err)
	assert.Len(t, f.auditEntries(t), len(before))
}

func TestUpdate_RejectsInvalidFinalState(t *testing.T) {
	f := setupKitService(t)
	ctx := context.Background()

	kit, err := f.svc.Insert(ctx, validRequest(f))
	require.NoError(t, err)

	members := []int64{f.ph}
	_, err = f.svc.Update(ctx, kit.ID, domain.UpdateRequest{AnalyteIDs: &members})
	// metals still has a metal count but is no longer a member
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestActivateDeactivate(t *testing.T) {
	f := setupKitService(t)
	ctx := context.Background()

	kit, err := f.svc.Insert(ctx, validRequest(f))
	require.NoError(t, err)

	got, err := f.svc.Deactivate(ctx, kit.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	active, err := f.svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	before := f.auditEntries(t)
	_, err = f.svc.Deactivate(ctx, kit.ID)
	require.NoError(t, err)
	assert.Len(t, f.auditEntries(t), len(before))

	got, err = f.svc.Activate(ctx, kit.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestGet_NotFound(t *testing.T) {
	f := setupKitService(t)
	_, err := f.svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
