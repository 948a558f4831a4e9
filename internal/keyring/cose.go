/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keyring

import (
	"crypto"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	cose "github.com/veraison/go-cose"
)

// KIDLength is the size of a key id: a SHA-256 COSE_Key thumbprint.
const KIDLength = 32

var errNotECDSA = errors.New("only ECDSA-P256 keys have a COSE form")

// COSEKey returns the public key as a COSE_Key (EC2, P-256).
func COSEKey(p *PublicKey) (*cose.Key, error) {
	if p == nil || p.ecdsa == nil {
		return nil, errNotECDSA
	}
	x := p.ecdsa.X.FillBytes(make([]byte, 32))
	y := p.ecdsa.Y.FillBytes(make([]byte, 32))
	return &cose.Key{
		Type:      cose.KeyTypeEC2,
		Algorithm: cose.AlgorithmESP256,
		Params: map[any]any{
			cose.KeyLabelEC2Curve: cose.CurveP256,
			cose.KeyLabelEC2X:     x,
			cose.KeyLabelEC2Y:     y,
		},
	}, nil
}

// Thumbprint is the SHA-256 COSE_Key thumbprint of p, the raw key id stored
// alongside signing keys.
func Thumbprint(p *PublicKey) ([]byte, error) {
	key, err := COSEKey(p)
	if err != nil {
		return nil, err
	}
	kid, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("thumbprint: %w", err)
	}
	if len(kid) != KIDLength {
		return nil, fmt.Errorf("thumbprint: invalid length %d (expected: %d)", len(kid), KIDLength)
	}
	return kid, nil
}

// KeyID is Thumbprint in lower-case hex, the form shown to operators and
// used for key pinning.
func KeyID(p *PublicKey) (string, error) {
	kid, err := Thumbprint(p)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(kid), nil
}

// MarshalCOSE encodes p as a CBOR COSE_Key.
func MarshalCOSE(p *PublicKey) ([]byte, error) {
	key, err := COSEKey(p)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(key)
}

// UnmarshalCOSE decodes a CBOR COSE_Key written by MarshalCOSE.
func UnmarshalCOSE(data []byte) (*PublicKey, error) {
	var key cose.Key
	if err := cbor.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	pub, err := key.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	ec, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an ECDSA key", ErrKeyFormat, pub)
	}
	return PublicFromECDSA(ec)
}
