package store_test

import (
	"context"
	"testing"

	"etf_tracker/internal/apperr"
	"etf_tracker/internal/domain"
	"etf_tracker/internal/policy"
	"etf_tracker/internal/query"
	"etf_tracker/internal/store"
	"etf_tracker/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *store.Stores) {
	t.Helper()
	conn := testutil.OpenDB(t)
	return conn, store.New(conn)
}

func newEtf(ticker string, owner uint, public bool) *domain.Etf {
	return &domain.Etf{
		Ticker:       ticker,
		Description:  ticker + " fund",
		AssetClass:   "Equity",
		ExpenseRatio: decimal.RequireFromString("0.05"),
		UserID:       owner,
		IsPublic:     public,
	}
}

func TestUserCreateAndFind(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()

	u := &domain.User{ID: 77, Username: "  bob ", Password: "hash", Role: domain.RoleUser}
	require.NoError(t, s.Users.Create(ctx, u))
	assert.NotEqual(t, uint(77), u.ID, "supplied id is ignored")
	assert.Equal(t, "bob", u.Username, "username is trimmed")

	byName, err := s.Users.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.Users.FindByUsername(ctx, "Bob")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound, "usernames are case-sensitive")

	_, err = s.Users.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUserCreateDuplicate(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, &domain.User{Username: "bob", Password: "h", Role: domain.RoleUser}))
	err := s.Users.Create(ctx, &domain.User{Username: "bob", Password: "h", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
	assert.Equal(t, 400, apperr.Status(err))
}

func TestUserUpdateProfile(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	testutil.CreateUser(t, conn, "carol", "pw", domain.RoleUser)

	u := &domain.User{ID: alice.ID, Username: "carol", Role: domain.RoleUser}
	assert.ErrorIs(t, s.Users.UpdateProfile(ctx, u), apperr.ErrUsernameTaken)

	u = &domain.User{ID: alice.ID, Username: "alicia", Role: domain.RoleAdmin}
	require.NoError(t, s.Users.UpdateProfile(ctx, u))
	assert.Equal(t, "alicia", u.Username)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, alice.Password, u.Password, "password hash untouched")

	// Keeping one's own name is not a clash
	require.NoError(t, s.Users.UpdateProfile(ctx, &domain.User{ID: alice.ID, Username: "alicia", Role: domain.RoleAdmin}))

	assert.ErrorIs(t, s.Users.UpdateProfile(ctx, &domain.User{ID: 4242, Username: "x", Role: domain.RoleUser}), apperr.ErrUserNotFound)
}

func TestUserUpdateAccount(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	erin := testutil.CreateUser(t, conn, "erin", "pw", domain.RoleUser)
	testutil.CreateUser(t, conn, "frank", "pw", domain.RoleUser)

	u := &domain.User{ID: erin.ID, Username: "erina", Role: domain.RoleAdmin}
	require.NoError(t, s.Users.UpdateAccount(ctx, u, "reset-hash"))
	assert.Equal(t, "erina", u.Username)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "reset-hash", u.Password)

	// A rejected profile leaves the password alone
	err := s.Users.UpdateAccount(ctx, &domain.User{ID: erin.ID, Username: "frank", Role: domain.RoleUser}, "other-hash")
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)
	got, err := s.Users.FindByID(ctx, erin.ID)
	require.NoError(t, err)
	assert.Equal(t, "erina", got.Username)
	assert.Equal(t, "reset-hash", got.Password)
}

func TestUserSetPasswordHash(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, conn, "dave", "pw", domain.RoleUser)

	require.NoError(t, s.Users.SetPasswordHash(ctx, u.ID, "new-hash"))
	got, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	assert.ErrorIs(t, s.Users.SetPasswordHash(ctx, 4242, "x"), apperr.ErrUserNotFound)
}

func TestUserListSearchAndSort(t *testing.T) {
	conn, s := setup(t)
	testutil.CreateUser(t, conn, "zoe", "pw", domain.RoleUser)
	testutil.CreateUser(t, conn, "Zack", "pw", domain.RoleAdmin)
	testutil.CreateUser(t, conn, "amy", "pw", domain.RoleUser)

	users, err := s.Users.List(context.Background(), query.Params{Search: "Z", SortBy: "username", SortDirection: "desc"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "zoe", users[0].Username)
	assert.Equal(t, "Zack", users[1].Username)
}

func TestUserDeleteCascades(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	bob := testutil.CreateUser(t, conn, "bob", "pw", domain.RoleUser)

	aliceEtf := newEtf("VTI", alice.ID, true)
	bobEtf := newEtf("BND", bob.ID, true)
	require.NoError(t, s.Etfs.Create(ctx, aliceEtf))
	require.NoError(t, s.Etfs.Create(ctx, bobEtf))
	alicePf := &domain.Portfolio{Name: "alice", UserID: alice.ID}
	bobPf := &domain.Portfolio{Name: "bob", UserID: bob.ID}
	require.NoError(t, s.Portfolios.Create(ctx, alicePf))
	require.NoError(t, s.Portfolios.Create(ctx, bobPf))

	_, err := s.Memberships.Add(ctx, alicePf.ID, bobEtf.ID)
	require.NoError(t, err)
	_, err = s.Memberships.Add(ctx, bobPf.ID, aliceEtf.ID)
	require.NoError(t, err)
	_, err = s.Memberships.Add(ctx, bobPf.ID, bobEtf.ID)
	require.NoError(t, err)

	require.NoError(t, s.Users.Delete(ctx, alice.ID))

	_, err = s.Users.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = s.Portfolios.FindByID(ctx, alicePf.ID)
	assert.ErrorIs(t, err, apperr.ErrPortfolioNotFound)
	_, err = s.Etfs.FindByID(ctx, aliceEtf.ID)
	assert.ErrorIs(t, err, apperr.ErrEtfNotFound)

	// bob keeps his rows, minus the link to alice's ETF
	etfs, err := s.Memberships.EtfsIn(ctx, bobPf.ID, policy.Scope{All: true})
	require.NoError(t, err)
	require.Len(t, etfs, 1)
	assert.Equal(t, "BND", etfs[0].Ticker)

	var links int64
	require.NoError(t, conn.Model(&domain.PortfolioEtf{}).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	assert.ErrorIs(t, s.Users.Delete(ctx, alice.ID), apperr.ErrUserNotFound)
}

func TestEtfCreateAssignsFreshID(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)

	first := newEtf("VTI", owner.ID, false)
	require.NoError(t, s.Etfs.Create(ctx, first))

	second := newEtf("VOO", owner.ID, false)
	second.ID = first.ID // A client trying to overwrite an existing row
	require.NoError(t, s.Etfs.Create(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	stored, err := s.Etfs.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "VTI", stored.Ticker)
	assert.True(t, decimal.RequireFromString("0.05").Equal(stored.ExpenseRatio))
}

func TestEtfUpdateKeepsIDAndOwner(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	other := testutil.CreateUser(t, conn, "mallory", "pw", domain.RoleUser)

	e := newEtf("VTI", owner.ID, true)
	require.NoError(t, s.Etfs.Create(ctx, e))

	updated, err := s.Etfs.Update(ctx, e.ID, domain.Etf{
		ID:           e.ID + 100,
		Ticker:       "VTI2",
		Description:  "",
		AssetClass:   "Bond",
		ExpenseRatio: decimal.RequireFromString("0.1234"),
		UserID:       other.ID,
		IsPublic:     false,
	})
	require.NoError(t, err)
	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, owner.ID, updated.UserID)
	assert.Equal(t, "VTI2", updated.Ticker)
	assert.Equal(t, "", updated.Description, "zero values are written")
	assert.False(t, updated.IsPublic, "false is written")
	assert.True(t, decimal.RequireFromString("0.1234").Equal(updated.ExpenseRatio))

	_, err = s.Etfs.Update(ctx, 9999, domain.Etf{Ticker: "X"})
	assert.ErrorIs(t, err, apperr.ErrEtfNotFound)
}

func TestEtfListIsScoped(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	bob := testutil.CreateUser(t, conn, "bob", "pw", domain.RoleUser)
	require.NoError(t, s.Etfs.Create(ctx, newEtf("PRIV", alice.ID, false)))
	require.NoError(t, s.Etfs.Create(ctx, newEtf("PUB", alice.ID, true)))
	require.NoError(t, s.Etfs.Create(ctx, newEtf("MINE", bob.ID, false)))

	etfs, err := s.Etfs.List(ctx, query.Params{Scope: policy.ScopeFor(policy.ActorFrom(bob))})
	require.NoError(t, err)
	tickers := []string{}
	for _, e := range etfs {
		tickers = append(tickers, e.Ticker)
	}
	assert.Equal(t, []string{"MINE", "PUB"}, tickers)

	none, err := s.Etfs.List(ctx, query.Params{Scope: policy.ScopeFor(policy.ActorFrom(bob)), Search: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEtfDeleteRemovesMemberships(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	e := newEtf("VTI", owner.ID, false)
	require.NoError(t, s.Etfs.Create(ctx, e))
	p := &domain.Portfolio{Name: "core", UserID: owner.ID}
	require.NoError(t, s.Portfolios.Create(ctx, p))
	_, err := s.Memberships.Add(ctx, p.ID, e.ID)
	require.NoError(t, err)

	require.NoError(t, s.Etfs.Delete(ctx, e.ID))

	exists, err := s.Memberships.Exists(ctx, p.ID, e.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = s.Portfolios.FindByID(ctx, p.ID)
	assert.NoError(t, err, "portfolio survives")

	assert.ErrorIs(t, s.Etfs.Delete(ctx, e.ID), apperr.ErrEtfNotFound)
}

func TestPortfolioUpdateKeepsIDAndOwner(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	p := &domain.Portfolio{Name: "core", UserID: owner.ID, IsPublic: true}
	require.NoError(t, s.Portfolios.Create(ctx, p))

	updated, err := s.Portfolios.Update(ctx, p.ID, domain.Portfolio{ID: 500, Name: "renamed", UserID: 500, IsPublic: false})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, owner.ID, updated.UserID)
	assert.Equal(t, "renamed", updated.Name)
	assert.False(t, updated.IsPublic)

	_, err = s.Portfolios.Update(ctx, 9999, domain.Portfolio{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrPortfolioNotFound)
}

func TestPortfolioDeleteCascadesMembershipsOnly(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	a, b := newEtf("AAA", owner.ID, false), newEtf("BBB", owner.ID, false)
	require.NoError(t, s.Etfs.Create(ctx, a))
	require.NoError(t, s.Etfs.Create(ctx, b))
	p := &domain.Portfolio{Name: "core", UserID: owner.ID}
	keep := &domain.Portfolio{Name: "other", UserID: owner.ID}
	require.NoError(t, s.Portfolios.Create(ctx, p))
	require.NoError(t, s.Portfolios.Create(ctx, keep))
	for _, e := range []*domain.Etf{a, b} {
		_, err := s.Memberships.Add(ctx, p.ID, e.ID)
		require.NoError(t, err)
	}
	_, err := s.Memberships.Add(ctx, keep.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, s.Portfolios.Delete(ctx, p.ID))

	var links []domain.PortfolioEtf
	require.NoError(t, conn.Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, keep.ID, links[0].PortfolioID)

	for _, e := range []*domain.Etf{a, b} {
		_, err := s.Etfs.FindByID(ctx, e.ID)
		assert.NoError(t, err, "ETF %s survives", e.Ticker)
	}
	assert.ErrorIs(t, s.Portfolios.Delete(ctx, p.ID), apperr.ErrPortfolioNotFound)
}

func TestMembershipAddRemove(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	e := newEtf("VTI", owner.ID, false)
	require.NoError(t, s.Etfs.Create(ctx, e))
	p := &domain.Portfolio{Name: "core", UserID: owner.ID}
	require.NoError(t, s.Portfolios.Create(ctx, p))

	link, err := s.Memberships.Add(ctx, p.ID, e.ID)
	require.NoError(t, err)
	assert.NotZero(t, link.ID)

	_, err = s.Memberships.Add(ctx, p.ID, e.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyInPortfolio)
	assert.Equal(t, 409, apperr.Status(err))

	require.NoError(t, s.Memberships.Remove(ctx, p.ID, e.ID))
	require.NoError(t, s.Memberships.Remove(ctx, p.ID, e.ID), "removing a missing pair is a no-op")

	etfs, err := s.Memberships.EtfsIn(ctx, p.ID, policy.Scope{All: true})
	require.NoError(t, err)
	assert.Empty(t, etfs)
}

func TestMembershipEtfsInOrderedByTicker(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	p := &domain.Portfolio{Name: "core", UserID: owner.ID}
	require.NoError(t, s.Portfolios.Create(ctx, p))
	for _, ticker := range []string{"VXUS", "BND", "VTI"} {
		e := newEtf(ticker, owner.ID, false)
		require.NoError(t, s.Etfs.Create(ctx, e))
		_, err := s.Memberships.Add(ctx, p.ID, e.ID)
		require.NoError(t, err)
	}

	etfs, err := s.Memberships.EtfsIn(ctx, p.ID, policy.Scope{All: true})
	require.NoError(t, err)
	require.Len(t, etfs, 3)
	assert.Equal(t, "BND", etfs[0].Ticker)
	assert.Equal(t, "VTI", etfs[1].Ticker)
	assert.Equal(t, "VXUS", etfs[2].Ticker)
}

func TestMembershipEtfsInHidesPrivateEtfsOfOthers(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, conn, "alice", "pw", domain.RoleUser)
	reader := testutil.CreateUser(t, conn, "bob", "pw", domain.RoleUser)
	p := &domain.Portfolio{Name: "open", UserID: owner.ID, IsPublic: true}
	require.NoError(t, s.Portfolios.Create(ctx, p))
	for _, e := range []*domain.Etf{newEtf("SECRET", owner.ID, false), newEtf("VTI", owner.ID, true)} {
		require.NoError(t, s.Etfs.Create(ctx, e))
		_, err := s.Memberships.Add(ctx, p.ID, e.ID)
		require.NoError(t, err)
	}

	tickers := func(scope policy.Scope) []string {
		etfs, err := s.Memberships.EtfsIn(ctx, p.ID, scope)
		require.NoError(t, err)
		out := make([]string, 0, len(etfs))
		for _, e := range etfs {
			out = append(out, e.Ticker)
		}
		return out
	}

	assert.Equal(t, []string{"VTI"}, tickers(policy.ScopeFor(policy.ActorFrom(reader))))
	assert.Equal(t, []string{"SECRET", "VTI"}, tickers(policy.ScopeFor(policy.ActorFrom(owner))))
	assert.Equal(t, []string{"SECRET", "VTI"}, tickers(policy.Scope{All: true}))
}
