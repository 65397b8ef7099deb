package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions for one account.
type Signer struct {
	account *Account
	keys    KeyStore
}

func NewSigner(a *Account, keys KeyStore) *Signer {
	return &Signer{account: a, keys: keys}
}

// Address returns the signing address.
func (s *Signer) Address() common.Address {
	return s.account.Address
}

// SignTx signs tx for chainID. The key is fetched from the store on every
// call and never cached.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	hexKey, err := s.keys.Get(s.account.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != s.account.Address {
		return nil, fmt.Errorf("stored key for %q does not match %s", s.account.Name, s.account.Address.Hex())
	}
	return key, nil
}
