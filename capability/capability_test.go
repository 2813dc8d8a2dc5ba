package capability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	for _, a := range []Ability{Top, StoreAdd, UploadAdd, UploadList, VoucherClaim, VoucherRedeem} {
		require.True(t, a.Valid(), "expected %s to be valid", a)
	}
	require.False(t, Ability("store/remove").Valid())
	require.False(t, Ability("").Valid())
}

func TestMatch(t *testing.T) {
	require.True(t, Match("store/add", StoreAdd))
	require.True(t, Match("*", UploadAdd))
	require.True(t, Match("store/*", StoreAdd))
	require.False(t, Match("store/*", UploadAdd))
	require.False(t, Match("upload/add", UploadList))
	require.False(t, Match("store/add/extra", StoreAdd))
}

func TestNamespace(t *testing.T) {
	require.Equal(t, "store", StoreAdd.Namespace())
	require.Equal(t, "voucher", VoucherRedeem.Namespace())
	require.Equal(t, "", Top.Namespace())
}
