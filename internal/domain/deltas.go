package domain

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// AssetKey returns the delta key for a token and optional token id
func AssetKey(token, id string) string {
	token = strings.ToLower(token)
	if id == "" {
		return token
	}
	return token + ":" + id
}

type deltaAccumulator struct {
	involved map[string]struct{}
	deltas   map[string]map[string]*big.Int
}

func (a *deltaAccumulator) touch(address string) string {
	addr := strings.ToLower(address)
	a.involved[addr] = struct{}{}
	return addr
}

func (a *deltaAccumulator) add(address, key string, delta *big.Int) {
	addr := a.touch(address)
	byKey, ok := a.deltas[addr]
	if !ok {
		byKey = make(map[string]*big.Int)
		a.deltas[addr] = byKey
	}
	acc, ok := byKey[key]
	if !ok {
		acc = new(big.Int)
		byKey[key] = acc
	}
	acc.Add(acc, delta)
}

func (a *deltaAccumulator) move(from, to, key string, amount *big.Int) {
	a.add(from, key, new(big.Int).Neg(amount))
	a.add(to, key, amount)
}

// AggregateDeltas nets every transfer into signed per-address deltas.
// The returned address list is sorted and also contains every token
// contract referenced by a transfer.
func AggregateDeltas(changes AssetChanges) ([]string, DeltasByAddress, error) {
	acc := &deltaAccumulator{
		involved: make(map[string]struct{}),
		deltas:   make(map[string]map[string]*big.Int),
	}
	one := big.NewInt(1)

	for _, t := range changes.Native {
		amount, err := parseAmount(t.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid native transfer amount: %w", err)
		}
		acc.move(t.From, t.To, NativeAssetKey, amount)
	}

	for _, t := range changes.ERC20 {
		amount, err := parseAmount(t.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid ERC-20 transfer amount: %w", err)
		}
		acc.touch(t.Token)
		acc.move(t.From, t.To, AssetKey(t.Token, ""), amount)
	}

	for _, t := range changes.ERC721 {
		acc.touch(t.Token)
		acc.move(t.From, t.To, AssetKey(t.Token, t.TokenID), one)
	}

	for _, t := range changes.ERC1155 {
		amount, err := parseAmount(t.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid ERC-1155 transfer amount: %w", err)
		}
		acc.touch(t.Token)
		acc.move(t.From, t.To, AssetKey(t.Token, t.ID), amount)
	}

	deltas := make(DeltasByAddress)
	for addr, byKey := range acc.deltas {
		out := make(AddressDeltas)
		for key, value := range byKey {
			if value.Sign() == 0 {
				continue
			}
			out[key] = FormatSignedDelta(value)
		}
		if len(out) > 0 {
			deltas[addr] = out
		}
	}

	involved := lo.Keys(acc.involved)
	slices.Sort(involved)

	return involved, deltas, nil
}

// FormatSignedDelta renders v with an explicit sign, e.g. "+100" or "-50"
func FormatSignedDelta(v *big.Int) string {
	if v.Sign() > 0 {
		return "+" + v.String()
	}
	return v.String()
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", s)
	}
	return v, nil
}
