package types

import (
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
)

// ProofHashLength is the byte length of a proof digest.
const ProofHashLength = 32

// ValidateContentRef checks an opaque content reference. Empty refs are allowed.
// In strict mode a non-empty ref must decode as a CID.
func ValidateContentRef(field, ref string, maxLen uint64, strict bool) error {
	if ref == "" {
		return nil
	}
	if uint64(len(ref)) > maxLen {
		return ErrInvalidContentRef.Wrapf("%s exceeds %d bytes", field, maxLen)
	}
	if strings.TrimSpace(ref) != ref {
		return ErrInvalidContentRef.Wrapf("%s has surrounding whitespace", field)
	}
	if strict {
		if _, err := cid.Decode(ref); err != nil {
			return ErrInvalidContentRef.Wrapf("%s is not a CID: %v", field, err)
		}
	}
	return nil
}

// DecodeProofHash parses a hex-encoded 32-byte digest.
func DecodeProofHash(proofHash string) ([]byte, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(proofHash, "0x"))
	if err != nil {
		return nil, ErrInvalidProofHash.Wrapf("not hex: %v", err)
	}
	if len(bz) != ProofHashLength {
		return nil, ErrInvalidProofHash.Wrapf("expected %d bytes, got %d", ProofHashLength, len(bz))
	}
	return bz, nil
}
