package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetKind discriminates between the chain-native asset and a fungible token
// contract.
type AssetKind uint8

const (
	// AssetNative is the chain-native asset (no token contract involved).
	AssetNative AssetKind = iota
	// AssetFungible is a fungible token identified by its contract address.
	AssetFungible
)

// Asset is a tagged variant identifying the asset being moved: either the
// native asset or a fungible token contract. All transfer paths branch on the
// kind exactly once, instead of scattering address-equality checks around.
type Asset struct {
	Kind  AssetKind      `json:"kind" cbor:"0,keyasint"`
	Token common.Address `json:"token,omitempty" cbor:"1,keyasint,omitempty"`
}

// NativeAsset returns the Asset value for the chain-native asset.
func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

// FungibleAsset returns the Asset value for the fungible token at addr.
func FungibleAsset(addr common.Address) Asset {
	return Asset{Kind: AssetFungible, Token: addr}
}

// IsNative reports whether the asset is the chain-native one.
func (a Asset) IsNative() bool {
	return a.Kind == AssetNative
}

// Equal reports whether both assets identify the same kind and token.
func (a Asset) Equal(other Asset) bool {
	if a.Kind != other.Kind {
		return false
	}
	return a.Kind == AssetNative || a.Token == other.Token
}

// Address returns the token contract address for fungible assets, or the zero
// address for the native asset. The zero address is the conventional sentinel
// used by aggregator payloads for native swaps.
func (a Asset) Address() common.Address {
	if a.Kind == AssetNative {
		return common.Address{}
	}
	return a.Token
}

// AssetFromAddress builds an Asset from an aggregator-style address, where the
// zero address denotes the native asset.
func AssetFromAddress(addr common.Address) Asset {
	if addr == (common.Address{}) {
		return NativeAsset()
	}
	return FungibleAsset(addr)
}

func (a Asset) String() string {
	if a.Kind == AssetNative {
		return "native"
	}
	return fmt.Sprintf("fungible(%s)", a.Token.Hex())
}
