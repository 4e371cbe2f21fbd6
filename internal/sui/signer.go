package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const ed25519Flag byte = 0x00

// transaction data intent: scope TransactionData, version V0, app Sui.
var transactionIntent = []byte{0, 0, 0}

var ErrInvalidSeed = errors.New("invalid signer seed")

// Signer holds an ed25519 keypair for one Sui address.
type Signer struct {
	key     ed25519.PrivateKey
	address string
}

// NewSignerFromHex builds a signer from a hex-encoded 32 byte seed, with
// or without a 0x prefix.
func NewSignerFromHex(seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(seedHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSeed, ed25519.SeedSize, len(seed))
	}
	return NewSigner(ed25519.NewKeyFromSeed(seed)), nil
}

func NewSigner(key ed25519.PrivateKey) *Signer {
	pub := key.Public().(ed25519.PublicKey)
	return &Signer{key: key, address: AddressOf(pub)}
}

// AddressOf derives the Sui address of an ed25519 public key.
func AddressOf(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

func (s *Signer) Address() string {
	return s.address
}

// SignTransaction signs BCS transaction bytes and returns the serialized
// signature (flag || signature || public key) in base64.
func (s *Signer) SignTransaction(txBytes []byte) string {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(s.key, digest[:])
	pub := s.key.Public().(ed25519.PublicKey)

	out := make([]byte, 0, 1+len(sig)+len(pub))
	out = append(out, ed25519Flag)
	out = append(out, sig...)
	out = append(out, pub...)
	return base64.StdEncoding.EncodeToString(out)
}

// Keyring maps addresses to the signers able to act for them.
type Keyring map[string]*Signer

func NewKeyring(signers ...*Signer) Keyring {
	k := make(Keyring, len(signers))
	for _, s := range signers {
		k[NormalizeAddress(s.Address())] = s
	}
	return k
}

func (k Keyring) Lookup(address string) (*Signer, bool) {
	s, ok := k[NormalizeAddress(address)]
	return s, ok
}

func (k Keyring) Addresses() []string {
	out := make([]string, 0, len(k))
	for _, s := range k {
		out = append(out, s.Address())
	}
	return out
}

func NormalizeAddress(address string) string {
	a := strings.ToLower(strings.TrimSpace(address))
	if !strings.HasPrefix(a, "0x") {
		a = "0x" + a
	}
	return a
}
