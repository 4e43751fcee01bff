package updater

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/lumison/lumison/host"
)

// testKey is a minisign key pair built the way release tooling builds it.
type testKey struct {
	id   [keyIDLen]byte
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newTestKey(t *testing.T, id byte) *testKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	k := &testKey{pub: pub, priv: priv}
	for i := range k.id {
		k.id[i] = id + byte(i)
	}
	return k
}

func (k *testKey) line() string {
	raw := append([]byte(algLegacy), k.id[:]...)
	return base64.StdEncoding.EncodeToString(append(raw, k.pub...))
}

// encoded is the base64 of the whole public key file.
func (k *testKey) encoded() string {
	file := fmt.Sprintf("untrusted comment: minisign public key %X\n%s\n", k.id, k.line())
	return base64.StdEncoding.EncodeToString([]byte(file))
}

func (k *testKey) sign(data []byte, alg string, trusted string) string {
	msg := data
	if alg == algPrehashed {
		sum := blake2b.Sum512(data)
		msg = sum[:]
	}
	sig := ed25519.Sign(k.priv, msg)
	raw := append(append([]byte(alg), k.id[:]...), sig...)
	global := ed25519.Sign(k.priv, append(append([]byte(nil), sig...), trusted...))

	file := "untrusted comment: signature from lumison release key\n" +
		base64.StdEncoding.EncodeToString(raw) + "\n" +
		trustedPrefix + trusted + "\n" +
		base64.StdEncoding.EncodeToString(global) + "\n"
	return base64.StdEncoding.EncodeToString([]byte(file))
}

// fakeRuntime records emitted events.
type fakeRuntime struct {
	listeners host.Listeners

	mu     sync.Mutex
	events []host.Event
}

func (r *fakeRuntime) SessionID() string                 { return "s" }
func (r *fakeRuntime) Window(string) (host.Window, bool) { return nil, false }
func (r *fakeRuntime) Windows() []host.Window            { return nil }
func (r *fakeRuntime) Exit(int)                          {}
func (r *fakeRuntime) ExitCode() int                     { return 0 }
func (r *fakeRuntime) Listen(name string, h host.Handler) func() {
	return r.listeners.Add(name, h)
}
func (r *fakeRuntime) Emit(name string, data any) {
	r.mu.Lock()
	r.events = append(r.events, host.Event{Name: name, Data: data})
	r.mu.Unlock()
	r.listeners.Dispatch(host.Event{Name: name, Data: data})
}

func (r *fakeRuntime) named(name string) []host.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []host.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
