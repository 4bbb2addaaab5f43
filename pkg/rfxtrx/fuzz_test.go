// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomFrame builds a frame with a consistent length byte for a random
// registered or unregistered packet type
func randomFrame(rng *rand.Rand) []byte {
	size := 2 + rng.Intn(40)
	data := make([]byte, size)
	rng.Read(data)
	data[0] = uint8(size - 1)
	if rng.Intn(2) == 0 {
		types := registeredTypes()
		data[1] = uint8(types[rng.Intn(len(types))])
	}
	return data
}

func registeredTypes() []PacketType {
	var types []PacketType
	for pt := 0; pt < 256; pt++ {
		if PacketType(pt).Registered() {
			types = append(types, PacketType(pt))
		}
	}
	return types
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// Random bytes must never panic and must fail with one of the decode errors
func TestFuzz_ParsePacketRandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)

		p, err := ParsePacket(data)
		if err == nil {
			if p == nil {
				t.Fatalf("round %d: nil packet without error for % X", i, data)
			}
			continue
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("round %d: error %v is not a *DecodeError", i, err)
		}
		if !errors.Is(err, ErrFraming) && !errors.Is(err, ErrUnknownPacketType) && !errors.Is(err, ErrTruncated) {
			t.Fatalf("round %d: unexpected error kind %v", i, err)
		}
	}
}

// Any frame that decodes must hold the field presence invariant and
// re-encode to a frame that decodes to the same identity
func TestFuzz_DecodedFramesAreConsistent(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	decoded := 0
	for i := 0; i < rounds; i++ {
		data := randomFrame(rng)
		p, err := ParsePacket(data)
		if err != nil {
			continue
		}
		decoded++

		for f := Field(0); f < fieldCount; f++ {
			_, ok := p.Value(f)
			if ok != p.HasField(f) {
				t.Fatalf("round %d: % X field %v: Value ok = %v, HasField = %v", i, data, f, ok, p.HasField(f))
			}
		}

		again, err := ParsePacket(p.Bytes())
		if err != nil {
			t.Fatalf("round %d: re-parse of % X failed: %v", i, p.Bytes(), err)
		}
		if IdentityOf(again) != IdentityOf(p) {
			t.Fatalf("round %d: identity %v after re-encode, want %v", i, IdentityOf(again), IdentityOf(p))
		}
		if NewEvent(p) == nil {
			t.Fatalf("round %d: no event for %v", i, IdentityOf(p))
		}
	}
	t.Logf("%d of %d random frames decoded", decoded, rounds)
}

// ============================================================
// Framer Fuzz Tests
// ============================================================

// Frames survive arbitrary read boundaries
func TestFuzz_FramerRandomChunks(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		var stream []byte
		var want [][]byte
		for n := 1 + rng.Intn(5); n > 0; n-- {
			fr := randomFrame(rng)
			want = append(want, fr)
			stream = append(stream, fr...)
		}

		f := NewFramer()
		var got [][]byte
		for len(stream) > 0 {
			n := 1 + rng.Intn(len(stream))
			got = append(got, f.Feed(stream[:n])...)
			stream = stream[n:]
		}

		if len(got) != len(want) {
			t.Fatalf("round %d: got %d frames, want %d", i, len(got), len(want))
		}
		for j := range want {
			if !bytes.Equal(got[j], want[j]) {
				t.Fatalf("round %d frame %d: % X, want % X", i, j, got[j], want[j])
			}
		}
		if f.Pending() {
			t.Fatalf("round %d: framer left with a partial frame", i)
		}
	}
}
