package address_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/common"
)

func validAddress() address.Address {
	return address.Address{
		ID:          "addr-1",
		Country:     "PL",
		City:        "Kraków",
		FirstName:   "Jan",
		LastName:    "Kowalski",
		PostalCode:  "30-001",
		Street:      "Floriańska 1",
		PhoneNumber: "501234567",
	}
}

func TestValidateAcceptsCompleteAddress(t *testing.T) {
	require.NoError(t, address.Validate(validAddress()))
	a := validAddress()
	a.Country = " de "
	require.NoError(t, address.Validate(a))
}

func TestValidateRejectsBadFields(t *testing.T) {
	a := validAddress()
	a.PhoneNumber = "50123456a"
	a.Country = "US"
	a.City = ""

	err := address.Validate(a)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "phoneNumber")
	require.Contains(t, verr.Fields, "country")
	require.Contains(t, verr.Fields, "city")

	short := validAddress()
	short.PhoneNumber = "12345678"
	require.False(t, address.Valid(short))
}

func TestCountryRuleFollowsSupportedCountries(t *testing.T) {
	for _, code := range address.SupportedCountries {
		a := validAddress()
		a.Country = code
		require.NoError(t, address.Validate(a), code)
	}

	a := validAddress()
	a.Country = "US"
	err := address.Validate(a)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "must be one of: PL DE CZ SK LT UA GB FR", verr.Fields["country"])
}

func TestDraftDirtyTracking(t *testing.T) {
	var d address.Draft
	require.Error(t, d.Validate())

	d.UseSaved(validAddress())
	require.False(t, d.Dirty)
	require.NotNil(t, d.SubmissionID())
	require.Equal(t, "addr-1", *d.SubmissionID())

	same := validAddress()
	same.ID = ""
	d.Edit(same)
	require.False(t, d.Dirty, "re-entering identical values is not an edit")

	changed := validAddress()
	changed.Street = "Grodzka 2"
	d.Edit(changed)
	require.True(t, d.Dirty)
	require.Nil(t, d.SubmissionID())
	require.Nil(t, d.SubmissionRequest().ID)
	require.Equal(t, "Grodzka 2", d.SubmissionRequest().Street)

	d.UseSaved(validAddress())
	require.False(t, d.Dirty)
}

func TestDraftFreshAddressHasNoID(t *testing.T) {
	var d address.Draft
	fresh := validAddress()
	fresh.ID = ""
	d.Edit(fresh)
	require.NoError(t, d.Validate())
	require.Nil(t, d.SubmissionID())
}

type fakeRemote struct {
	saved   []address.Address
	created []address.Address
}

func (f *fakeRemote) ListAddresses(context.Context, string) ([]address.Address, error) {
	return f.saved, nil
}

func (f *fakeRemote) CreateAddress(_ context.Context, _ string, a address.Address) (address.Address, error) {
	f.created = append(f.created, a)
	a.ID = "new-id"
	return a, nil
}

func (f *fakeRemote) UpdateAddress(_ context.Context, _ string, a address.Address) (address.Address, error) {
	return a, nil
}

func TestServiceValidatesBeforeWriting(t *testing.T) {
	remote := &fakeRemote{saved: []address.Address{validAddress()}}
	svc := &address.Service{Remote: remote}
	ctx := context.Background()

	bad := validAddress()
	bad.PhoneNumber = "1"
	_, err := svc.Create(ctx, "u1", bad)
	require.Error(t, err)
	require.Empty(t, remote.created)

	created, err := svc.Create(ctx, "u1", validAddress())
	require.NoError(t, err)
	require.Equal(t, "new-id", created.ID)
	require.Equal(t, "", remote.created[0].ID)

	got, err := svc.Get(ctx, "u1", "addr-1")
	require.NoError(t, err)
	require.Equal(t, "Kowalski", got.LastName)

	_, err = svc.Get(ctx, "u1", "missing")
	require.ErrorIs(t, err, address.ErrNotFound)
}
