package types_test

import (
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func testCID(t *testing.T, data string) string {
	t.Helper()
	pref := cid.Prefix{Version: 1, Codec: cid.Raw, MhType: mh.SHA2_256, MhLength: -1}
	c, err := pref.Sum([]byte(data))
	require.NoError(t, err)
	return c.String()
}

func TestValidateContentRef(t *testing.T) {
	ref := testCID(t, "conversation transcript")

	require.NoError(t, types.ValidateContentRef("proof_ref", "", 256, true))
	require.NoError(t, types.ValidateContentRef("proof_ref", "opaque-ref-1", 256, false))
	require.NoError(t, types.ValidateContentRef("proof_ref", ref, 256, true))

	require.ErrorIs(t, types.ValidateContentRef("proof_ref", "opaque-ref-1", 256, true), types.ErrInvalidContentRef)
	require.ErrorIs(t, types.ValidateContentRef("proof_ref", strings.Repeat("a", 257), 256, false), types.ErrInvalidContentRef)
	require.ErrorIs(t, types.ValidateContentRef("proof_ref", " padded", 256, false), types.ErrInvalidContentRef)
}

func TestDecodeProofHash(t *testing.T) {
	hash := strings.Repeat("ab", 32)

	bz, err := types.DecodeProofHash(hash)
	require.NoError(t, err)
	require.Len(t, bz, types.ProofHashLength)

	_, err = types.DecodeProofHash("0x" + hash)
	require.NoError(t, err)

	_, err = types.DecodeProofHash("abcd")
	require.ErrorIs(t, err, types.ErrInvalidProofHash)

	_, err = types.DecodeProofHash(strings.Repeat("zz", 32))
	require.ErrorIs(t, err, types.ErrInvalidProofHash)
}
